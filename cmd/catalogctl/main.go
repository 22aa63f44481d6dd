// 运维命令行
//
//	catalogctl token <subject> --name 张三     # 签发访问Token（HTTP层不提供登录）
//	catalogctl migrate                        # 执行建表DDL
//	catalogctl index                          # 创建Elasticsearch索引
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/search"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/logger"
)

var (
	cfgFile   string
	tokenName string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "图书目录运维工具",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(cfgFile)
		return err
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "签发访问Token，subject即写操作记录的操作人",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenExpire)
		token, err := m.GenerateToken(args[0], tokenName)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(token)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "在主库执行建表DDL",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := postgres.Open(cfg.Database.Primary, cfg.Database, cfg.Server.Mode)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "创建Elasticsearch图书索引（已存在时跳过）",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
		if err != nil {
			return err
		}
		client, err := search.NewClient(cmd.Context(), cfg.Elasticsearch, log)
		if err != nil {
			return err
		}
		return search.NewBookIndex(client, cfg.Elasticsearch.Index, log).EnsureIndex(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ./config/config.yaml）")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "显示名称")
	rootCmd.AddCommand(tokenCmd, migrateCmd, indexCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
