package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"social-catering/backend/config"
	"social-catering/backend/internal/repository"
	"social-catering/backend/internal/service"
	"social-catering/backend/pkg/database"
	"social-catering/backend/pkg/jwt"
	applogger "social-catering/backend/pkg/logger"
	"social-catering/backend/pkg/metrics"
)

type rootOptions struct {
	configPath string
	timeout    time.Duration
}

// cliEnv 子命令共享的依赖
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func (o *rootOptions) open(withDB bool) (*cliEnv, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	rt := &cliEnv{cfg: cfg, logger: logger}
	if !withDB {
		return rt, nil
	}
	rt.db, err = database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return rt, nil
}

func (rt *cliEnv) close() {
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	rt.logger.Sync()
}

func (rt *cliEnv) services() *service.Service {
	return service.NewService(rt.cfg, repository.NewRepository(rt.db), metrics.NewNop(), rt.logger)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "cateringctl",
		Short:         "排班引擎运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "配置文件路径（默认 ./config/config.yaml）")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "单个命令的最长执行时间")

	root.AddCommand(
		newMigrateCommand(opts),
		newRollbackCommand(opts),
		newRecalculateCommand(opts),
		newPublishCommand(opts),
		newTokenCommand(opts),
	)
	return root
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行全部未应用的数据库迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			sqlDB, err := rt.db.DB()
			if err != nil {
				return err
			}
			return database.RunMigrations(sqlDB, rt.logger)
		},
	}
}

func newRollbackCommand(opts *rootOptions) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "回滚指定步数的数据库迁移",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			sqlDB, err := rt.db.DB()
			if err != nil {
				return err
			}
			return database.RollbackMigrations(sqlDB, steps, rt.logger)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "回滚步数")
	return cmd
}

// eventCommandFlags recalculate / publish 共用的参数
type eventCommandFlags struct {
	eventID string
	actorID string
}

func (f *eventCommandFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.eventID, "event", "", "活动ID")
	cmd.Flags().StringVar(&f.actorID, "actor", "", "操作人ID（写入审计日志）")
	cmd.MarkFlagRequired("event")
	cmd.MarkFlagRequired("actor")
}

func (f *eventCommandFlags) validate() error {
	if _, err := uuid.Parse(f.eventID); err != nil {
		return fmt.Errorf("--event 不是有效的 UUID: %w", err)
	}
	if _, err := uuid.Parse(f.actorID); err != nil {
		return fmt.Errorf("--actor 不是有效的 UUID: %w", err)
	}
	return nil
}

func newRecalculateCommand(opts *rootOptions) *cobra.Command {
	flags := &eventCommandFlags{}
	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "按当前排班重算活动汇总（修复漂移）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			event, err := rt.services().Event.RecalculateEvent(ctx, flags.eventID, flags.actorID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), event)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newPublishCommand(opts *rootOptions) *cobra.Command {
	flags := &eventCommandFlags{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "发布活动并生成班次（重复执行无副作用）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			rt, err := opts.open(true)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			result, err := rt.services().Event.PublishEvent(ctx, flags.eventID, flags.actorID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var actorID, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发调试用 Access Token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := uuid.Parse(actorID); err != nil {
				return fmt.Errorf("--actor 不是有效的 UUID: %w", err)
			}
			switch role {
			case jwt.RoleAdmin, jwt.RoleManager, jwt.RoleStaff:
			default:
				return fmt.Errorf("未知角色 %q", role)
			}

			rt, err := opts.open(false)
			if err != nil {
				return err
			}
			defer rt.close()

			token, err := jwt.NewManager(&rt.cfg.Auth).GenerateAccessToken(actorID, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorID, "actor", "", "操作人ID")
	cmd.Flags().StringVar(&role, "role", jwt.RoleManager, "角色：admin / manager / staff")
	cmd.MarkFlagRequired("actor")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
