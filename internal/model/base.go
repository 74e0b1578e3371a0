package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"gorm.io/gorm"
)

// ── PostgreSQL TEXT[] 技能标签集合 ──

// SkillSet 员工技能标签集合，对应 PostgreSQL TEXT[]。
// 标签去除首尾空白后按大小写不敏感去重，成员判断同样大小写不敏感。
type SkillSet []string

// NewSkillSet 构建规范化的技能集合（去空、去重、排序）
func NewSkillSet(tags ...string) SkillSet {
	seen := make(map[string]bool, len(tags))
	set := make(SkillSet, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		set = append(set, t)
	}
	sort.Slice(set, func(i, j int) bool {
		return strings.ToLower(set[i]) < strings.ToLower(set[j])
	})
	return set
}

// Contains 判断集合是否包含指定技能
func (s SkillSet) Contains(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, t := range s {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Equal 集合相等：忽略顺序、大小写与重复项
func (s SkillSet) Equal(other SkillSet) bool {
	a, b := NewSkillSet(s...), NewSkillSet(other...)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Scan 通过 pgtype 解析 PostgreSQL 返回的 TEXT[] 文本格式
func (s *SkillSet) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var tags []string
	if err := pgtype.NewMap().SQLScanner(&tags).Scan(src); err != nil {
		return fmt.Errorf("SkillSet.Scan: %w", err)
	}
	*s = NewSkillSet(tags...)
	return nil
}

// Value 通过 pgtype 编码为 TEXT[] 文本格式
func (s SkillSet) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	buf, err := pgtype.NewMap().Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, []string(s), nil)
	if err != nil {
		return nil, fmt.Errorf("SkillSet.Value: %w", err)
	}
	return string(buf), nil
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
