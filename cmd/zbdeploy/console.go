package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

// console 交互式控制台
// 使用 go-prompt 提供带 Tab 补全的 REPL，工作区固定为启动时的目录
type console struct {
	app       *app
	ctx       context.Context
	workspace string
	// in 读取确认输入，go-prompt 执行命令期间会恢复终端模式
	in io.Reader
}

// newConsoleCmd 创建控制台命令
func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console [workspace]",
		Short: "进入交互式控制台",
		Long: `进入交互式控制台，对同一个工作区反复执行部署相关命令。

进入控制台后，可使用命令:
  deploy [--domain <name>] [--no-browser]   部署工作区
  status                                     查看已保存的项目和服务
  open                                       打开项目控制台
  reset [--yes]                              删除已保存的部署信息
  help                                       显示帮助
  exit / quit                                退出控制台`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := resolveWorkspace(args)
			if err != nil {
				return err
			}
			c := &console{app: a, ctx: cmd.Context(), workspace: ws.Path, in: cmd.InOrStdin()}
			return c.run()
		},
	}
}

// run 启动控制台主循环，直到用户退出（Ctrl+D）
func (c *console) run() error {
	c.printWelcome()

	p := prompt.New(
		c.executor,
		c.completer,
		prompt.OptionPrefix("zbdeploy> "),
		prompt.OptionTitle("zbdeploy console"),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue),
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
	)
	p.Run()
	fmt.Fprintln(c.app.out, "\n已退出控制台。")
	return nil
}

// executor 执行单行命令
func (c *console) executor(in string) {
	line := strings.TrimSpace(in)
	if line == "" {
		return
	}
	if err := c.handleCommand(line); err != nil {
		fmt.Fprintf(c.app.out, "错误: %v\n", err)
	}
}

// completer 提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	parts := strings.Fields(text)

	current := ""
	if text != "" && !strings.HasSuffix(text, " ") && len(parts) > 0 {
		current = parts[len(parts)-1]
	}

	if len(parts) == 0 || (len(parts) == 1 && current != "") {
		return filterSuggestions(topLevelSuggestions(), current)
	}
	if parts[0] == "deploy" && strings.HasPrefix(current, "-") {
		return filterSuggestions([]prompt.Suggest{
			{Text: "--domain", Description: "指定域名"},
			{Text: "--no-browser", Description: "部署完成后不打开浏览器"},
		}, current)
	}
	return []prompt.Suggest{}
}

func topLevelSuggestions() []prompt.Suggest {
	return []prompt.Suggest{
		{Text: "deploy", Description: "部署工作区"},
		{Text: "status", Description: "查看已保存的项目和服务"},
		{Text: "open", Description: "打开项目控制台"},
		{Text: "reset", Description: "删除已保存的部署信息"},
		{Text: "help", Description: "显示帮助"},
		{Text: "exit", Description: "退出控制台"},
		{Text: "quit", Description: "退出控制台"},
	}
}

func filterSuggestions(all []prompt.Suggest, current string) []prompt.Suggest {
	var res []prompt.Suggest
	for _, s := range all {
		if strings.HasPrefix(s.Text, current) {
			res = append(res, s)
		}
	}
	return res
}

func (c *console) printWelcome() {
	fmt.Fprintln(c.app.out, "zbdeploy 交互式控制台")
	fmt.Fprintf(c.app.out, "工作区: %s\n", c.workspace)
	fmt.Fprintln(c.app.out, "提示: 输入 'help' 查看可用命令，输入 'exit' 或 'quit' 退出")
	fmt.Fprintln(c.app.out)
}

// handleCommand 解析并执行一行命令
func (c *console) handleCommand(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	args := []string{c.workspace}

	switch parts[0] {
	case "help", "h", "?":
		c.printHelp()
		return nil
	case "exit", "quit", "q":
		fmt.Fprintln(c.app.out, "退出控制台。")
		os.Exit(0)
	case "deploy":
		opts, err := parseDeployArgs(parts[1:])
		if err != nil {
			return err
		}
		return runDeploy(c.ctx, c.app, args, opts)
	case "status":
		return runStatus(c.app, args)
	case "open":
		return runOpen(c.app, args)
	case "reset":
		yes := len(parts) > 1 && (parts[1] == "--yes" || parts[1] == "-y")
		if !yes && !confirm(c.in, c.app.out, "确认删除当前工作区的部署信息? (yes/no): ") {
			fmt.Fprintln(c.app.out, "已取消")
			return nil
		}
		if err := c.app.deploySvc.Reset(c.workspace); err != nil {
			return err
		}
		fmt.Fprintln(c.app.out, "部署信息已删除")
		return nil
	default:
		fmt.Fprintln(c.app.out, "未知命令。输入 'help' 查看支持的命令。")
	}
	return nil
}

// parseDeployArgs 解析控制台里 deploy 的参数
func parseDeployArgs(args []string) (deployOptions, error) {
	var opts deployOptions
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--no-browser":
			opts.noBrowser = true
		case arg == "--domain" || arg == "-d":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s 需要一个域名参数", arg)
			}
			i++
			opts.domain = args[i]
		case strings.HasPrefix(arg, "--domain="):
			opts.domain = strings.TrimPrefix(arg, "--domain=")
		default:
			return opts, fmt.Errorf("未知参数: %s", arg)
		}
	}
	return opts, nil
}

func (c *console) printHelp() {
	fmt.Fprintln(c.app.out, "可用命令:")
	fmt.Fprintln(c.app.out, "  deploy [--domain <name>] [--no-browser]   部署工作区")
	fmt.Fprintln(c.app.out, "  status                                     查看已保存的项目和服务")
	fmt.Fprintln(c.app.out, "  open                                       打开项目控制台")
	fmt.Fprintln(c.app.out, "  reset [--yes]                              删除已保存的部署信息")
	fmt.Fprintln(c.app.out, "  exit | quit                                退出控制台")
}
