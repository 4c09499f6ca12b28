package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lucksec/zbdeploy/internal/archive"
	"github.com/lucksec/zbdeploy/internal/domain"
	"github.com/lucksec/zbdeploy/internal/service"
	"github.com/spf13/cobra"
)

// deployOptions deploy 命令的参数
type deployOptions struct {
	domain    string
	noBrowser bool
}

// deployCmd 部署命令
func deployCmd(a *app) *cobra.Command {
	var opts deployOptions
	cmd := &cobra.Command{
		Use:   "deploy [workspace]",
		Short: "打包并部署工作区",
		Long: `打包工作区（默认当前目录）并部署到 Zeabur，完成后打开项目控制台。

流程：打包 → 获取或创建项目和服务 → 获取环境 → 上传 → 绑定域名。
任一步失败都会中止，不会重试，也不会删除已经创建的项目。
上传只检查接口是否接受了代码包，之后的构建结果请在控制台查看。`,
		Example: `  # 部署当前目录
  zbdeploy deploy

  # 部署指定目录并指定域名
  zbdeploy deploy ./my-app --domain my-app-demo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), a, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.domain, "domain", "d", "", "指定域名（默认由服务名加随机后缀生成）")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "部署完成后不打开浏览器")
	return cmd
}

// runDeploy 执行一次部署并输出结果
// workspaceArgs 为空时部署当前目录
func runDeploy(ctx context.Context, a *app, workspaceArgs []string, opts deployOptions) error {
	ws, err := resolveWorkspace(workspaceArgs)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "正在部署 %s ...\n", ws.Path)
	result, err := a.deploySvc.Deploy(ctx, domain.DeployRequest{
		Workspace: ws,
		Domain:    opts.domain,
	})
	if err != nil {
		return fmt.Errorf("部署失败: %w", err)
	}

	dashboard := a.cfg.DashboardProjectURL(result.ProjectID)
	if result.Created {
		fmt.Fprintf(a.out, "已创建项目 %s 和服务 %s\n", result.ProjectID, result.ServiceID)
	}
	fmt.Fprintf(a.out, "部署成功！域名: %s\n", result.Domain)
	fmt.Fprintf(a.out, "控制台: %s\n", dashboard)

	if !opts.noBrowser {
		if err := a.openURL(dashboard); err != nil {
			// 浏览器打不开不影响部署结果
			a.log.Warn("打开浏览器失败: %v", err)
			fmt.Fprintf(a.out, "无法打开浏览器，请手动访问上面的控制台地址\n")
		}
	}
	return nil
}

// resolveWorkspace 确定并检查要操作的工作区
func resolveWorkspace(args []string) (domain.Workspace, error) {
	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return domain.Workspace{}, fmt.Errorf("%w: %v", service.ErrNoWorkspace, err)
		}
		args = []string{cwd}
	}
	return service.ValidateWorkspace(args)
}

// statusCmd 查看工作区的部署信息
func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [workspace]",
		Short: "查看工作区已保存的项目和服务",
		Long:  "显示 .zeabur/config.json 中保存的项目和服务 ID，不访问远端。",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(a, args)
		},
	}
}

func runStatus(a *app, args []string) error {
	ws, err := resolveWorkspace(args)
	if err != nil {
		return err
	}
	cfg, err := a.deploySvc.Status(ws.Path)
	if err != nil {
		return err
	}
	if !cfg.Complete() {
		fmt.Fprintf(a.out, "%s 尚未部署过\n", ws.Name)
		return nil
	}

	fmt.Fprintf(a.out, "工作区: %s\n", ws.Path)
	fmt.Fprintf(a.out, "  项目: %s\n", cfg.ProjectID)
	fmt.Fprintf(a.out, "  服务: %s\n", cfg.ServiceID)
	fmt.Fprintf(a.out, "  控制台: %s\n", a.cfg.DashboardProjectURL(cfg.ProjectID))
	return nil
}

// openCmd 打开项目控制台
func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open [workspace]",
		Short: "在浏览器中打开项目控制台",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(a, args)
		},
	}
}

func runOpen(a *app, args []string) error {
	ws, err := resolveWorkspace(args)
	if err != nil {
		return err
	}
	cfg, err := a.deploySvc.Status(ws.Path)
	if err != nil {
		return err
	}
	if !cfg.Complete() {
		return fmt.Errorf("%s 尚未部署过，请先运行: zbdeploy deploy", ws.Name)
	}

	url := a.cfg.DashboardProjectURL(cfg.ProjectID)
	fmt.Fprintln(a.out, url)
	return a.openURL(url)
}

// resetCmd 删除工作区的部署信息
func resetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset [workspace]",
		Short: "删除 .zeabur/config.json，下次部署会创建新项目",
		Long:  "只删除本地保存的 ID，远端项目不会被删除，需要时请在控制台手动删除。",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := resolveWorkspace(args)
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd.InOrStdin(), a.out, fmt.Sprintf("确认删除 %s 的部署信息? (yes/no): ", ws.Name)) {
				fmt.Fprintln(a.out, "已取消")
				return nil
			}
			if err := a.deploySvc.Reset(ws.Path); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "部署信息已删除")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "不再确认")
	return cmd
}

// archiveCmd 只执行打包，便于检查上传内容
func archiveCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "archive <dir> <output.zip>",
		Short: "只打包目录，不部署",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := archive.ZipDirectory(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已生成 %s\n", args[1])
			if !list {
				return nil
			}
			names, err := archive.ListEntries(args[1])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "列出压缩包中的文件")
	return cmd
}

// confirm 读取一行输入，yes/y 视为确认
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "y"
}
