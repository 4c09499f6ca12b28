package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/lucksec/zbdeploy/internal/config"
	"github.com/lucksec/zbdeploy/internal/credentials"
	"github.com/lucksec/zbdeploy/internal/logger"
	"github.com/lucksec/zbdeploy/internal/repository"
	"github.com/lucksec/zbdeploy/internal/service"
	"github.com/lucksec/zbdeploy/internal/zeabur"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

// app 命令共享的依赖，由 main 组装后传给各个命令
type app struct {
	cfg       *config.Config
	creds     credentials.CredentialManager
	deploySvc service.DeployService
	log       logger.Logger
	out       io.Writer
	// openURL 打开浏览器，测试中替换掉
	openURL func(url string) error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.InitLogger(loggerConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志系统失败: %v\n", err)
		os.Exit(1)
	}
	log.Debug("配置加载成功: GraphQL=%s, Upload=%s, Config=%s",
		cfg.API.GraphQLEndpoint, cfg.API.UploadEndpoint, cfg.ConfigPath)

	creds, err := credentials.NewCredentialManager(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	a, err := newApp(cfg, creds, log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化失败: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loggerConfig 以日志默认配置为基础，叠加配置文件中的 [log] 设置
func loggerConfig(cfg *config.Config) *logger.Config {
	logCfg := logger.DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = logger.ParseLevel(cfg.Log.Level)
	}
	logCfg.EnableConsole = cfg.Log.EnableConsole
	logCfg.EnableFile = cfg.Log.EnableFile
	if cfg.Log.LogDir != "" {
		logCfg.LogDir = cfg.Log.LogDir
	}
	logCfg.LogFile = cfg.Log.LogFile
	return logCfg
}

// newApp 按配置组装客户端和服务
func newApp(cfg *config.Config, creds credentials.CredentialManager, log logger.Logger, out io.Writer) (*app, error) {
	opts := []zeabur.Option{
		zeabur.WithTimeout(time.Duration(cfg.API.TimeoutSeconds) * time.Second),
	}
	if token, source, err := creds.GetToken(); err == nil {
		log.Debug("使用来自 %s 的 API Token", source)
		opts = append(opts, zeabur.WithToken(token))
	}

	client, err := zeabur.New(cfg.API.GraphQLEndpoint, cfg.API.UploadEndpoint, opts...)
	if err != nil {
		return nil, err
	}

	deploySvc := service.NewDeployService(repository.NewDeploymentConfigRepository(), client, log, "")
	return &app{
		cfg:       cfg,
		creds:     creds,
		deploySvc: deploySvc,
		log:       log,
		out:       out,
		openURL:   browser.OpenURL,
	}, nil
}

// newRootCmd 创建根命令
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zbdeploy",
		Short: "把当前目录一键部署到 Zeabur",
		Long: `zbdeploy 把本地目录打包上传到 Zeabur，并为服务绑定一个公开域名。

第一次部署会创建临时项目和服务，并把它们的 ID 保存在 .zeabur/config.json，
之后的部署都复用这两个 ID。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.out)

	rootCmd.AddCommand(deployCmd(a))
	rootCmd.AddCommand(statusCmd(a))
	rootCmd.AddCommand(openCmd(a))
	rootCmd.AddCommand(resetCmd(a))
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(credentialCmd(a))
	rootCmd.AddCommand(newConsoleCmd(a))

	setupCompletion(rootCmd)
	return rootCmd
}
