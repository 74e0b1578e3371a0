package model

import "time"

// Worker 员工表，对应 workers
type Worker struct {
	WorkerID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"worker_id"`
	Name     string   `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    *string  `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Active   bool     `gorm:"not null;default:true"                          json:"active"`
	Skills   SkillSet `gorm:"type:text[];not null;default:'{}'"              json:"skills"`
	SoftDeleteModel

	// 关联
	Certifications []WorkerCertification `gorm:"foreignKey:WorkerID;references:WorkerID" json:"certifications,omitempty"`
}

// TableName 指定表名
func (Worker) TableName() string { return "workers" }

// Certification 按证书 ID 查找员工持有的证书
func (w *Worker) Certification(certificationID string) (*WorkerCertification, bool) {
	for i := range w.Certifications {
		if w.Certifications[i].CertificationID == certificationID {
			return &w.Certifications[i], true
		}
	}
	return nil, false
}

// WorkerCertification 员工证书，对应 worker_certifications
// ExpiresAt 为空表示长期有效
type WorkerCertification struct {
	WorkerCertificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"worker_certification_id"`
	WorkerID              string     `gorm:"type:uuid;not null"                             json:"worker_id"`
	CertificationID       string     `gorm:"type:varchar(64);not null"                      json:"certification_id"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (WorkerCertification) TableName() string { return "worker_certifications" }

// ValidThrough 证书在 t 时刻是否仍有效（到期时间早于 t 视为过期）
func (c *WorkerCertification) ValidThrough(t time.Time) bool {
	return c.ExpiresAt == nil || !c.ExpiresAt.Before(t)
}
