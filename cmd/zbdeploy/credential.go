package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lucksec/zbdeploy/internal/credentials"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// credentialCmd API Token 管理命令组
func credentialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Zeabur API Token 管理",
		Long: `管理访问 Zeabur 控制面使用的 API Token。

临时项目不需要 Token。配置后所有请求都会带上 Authorization 头，
项目会创建在 Token 对应的账号下。

Token 可以保存在配置文件中，也可以通过环境变量 ZEABUR_TOKEN 提供，
配置文件优先。`,
	}

	cmd.AddCommand(setCredentialCmd(a))
	cmd.AddCommand(getCredentialCmd(a))
	cmd.AddCommand(removeCredentialCmd(a))
	return cmd
}

// setCredentialCmd 设置 Token
func setCredentialCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "设置 API Token",
		Example: `  # 交互式输入（不回显）
  zbdeploy credential set

  # 通过参数设置
  zbdeploy credential set --token <token>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(a.out, "请输入 Zeabur API Token: ")
				secret, err := readSecret(cmd.InOrStdin())
				fmt.Fprintln(a.out)
				if err != nil {
					return fmt.Errorf("读取 Token 失败: %w", err)
				}
				token = secret
			}

			if err := a.creds.SetToken(token); err != nil {
				return fmt.Errorf("设置 Token 失败: %w", err)
			}
			fmt.Fprintf(a.out, "Token 已保存到 %s\n", a.creds.ConfigPath())
			return nil
		},
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "API Token")
	return cmd
}

// getCredentialCmd 查看 Token
func getCredentialCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "查看当前使用的 API Token（部分隐藏）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, source, err := a.creds.GetToken()
			if err != nil {
				fmt.Fprintln(a.out, "未配置 Token，将以临时项目方式部署")
				fmt.Fprintln(a.out, "\n提示: 使用 'zbdeploy credential set' 配置 Token")
				return nil
			}
			fmt.Fprintf(a.out, "Token: %s\n", credentials.MaskToken(token))
			switch source {
			case credentials.SourceFile:
				fmt.Fprintf(a.out, "来源: 配置文件 %s\n", a.creds.ConfigPath())
			case credentials.SourceEnv:
				fmt.Fprintf(a.out, "来源: 环境变量 %s\n", credentials.EnvToken)
			}
			return nil
		},
	}
}

// removeCredentialCmd 删除 Token
func removeCredentialCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "从配置文件删除 API Token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), a.out, "确认删除保存的 Token? (yes/no): ") {
				fmt.Fprintln(a.out, "已取消")
				return nil
			}
			if err := a.creds.RemoveToken(); err != nil {
				return fmt.Errorf("删除 Token 失败: %w", err)
			}
			fmt.Fprintln(a.out, "Token 已删除")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "不再确认")
	return cmd
}

// readSecret 从终端读取时不回显，否则按行读取（管道输入）
func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
