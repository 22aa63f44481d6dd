// 消费者进程入口
//
// 用法：
//
//	consumer run                          # 持续消费直到收到SIGINT/SIGTERM
//	consumer drain book.upsert            # 只处理一条匹配的消息后退出
//	consumer --config ./config/config.yaml run
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "consumer",
	Short: "图书目录命令消费者",
	Long:  `从RabbitMQ消费写命令，提交到PostgreSQL并投影到Elasticsearch`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径（默认 ./config/config.yaml）")
	rootCmd.AddCommand(runCmd, drainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
