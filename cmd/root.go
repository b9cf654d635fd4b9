package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"corpus-expand/internal/app"
	"corpus-expand/internal/llm"
	"corpus-expand/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

type expandFlags struct {
	configArg     string
	providerArg   string
	modelArg      string
	targetArg     int
	perCallArg    int
	langsArg      []string
	zhPathArg     string
	enPathArg     string
	delayArg      time.Duration
	maxRetriesArg int
	logFileArg    string
	verboseArg    bool
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := NewRootCmd(os.Stdout, os.Stderr)
	return root.ExecuteContext(ctx)
}

func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &expandFlags{}
	showVersion := false

	root := &cobra.Command{
		Use:           "corpus-expand",
		Short:         "调用大模型把中英听力语料扩充到每档目标条数",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runExpand(stdout, flags, &showVersion),
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true
	bindExpandFlags(root, flags)
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "显示版本信息")

	root.AddCommand(&cobra.Command{
		Use:           "expand",
		Short:         "扩充语料（默认命令）",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runExpand(stdout, flags, nil),
	})
	root.AddCommand(newStatusCmd(stdout, flags))
	root.AddCommand(newSetCmd(stdout, flags))
	root.AddCommand(&cobra.Command{
		Use:           "version",
		Short:         "显示版本信息",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(stdout)
		},
	})
	return root
}

func bindExpandFlags(cmd *cobra.Command, flags *expandFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configArg, "config", "", "配置文件路径，默认读取当前目录 corpus-expand.yaml")
	pf.StringVar(&flags.providerArg, "provider", "", fmt.Sprintf("覆盖配置中的 provider（%s）", strings.Join(llm.Supported(), "/")))
	pf.StringVar(&flags.modelArg, "model", "", "覆盖模型名")
	pf.IntVar(&flags.targetArg, "target", 0, "每档目标条数")
	pf.IntVar(&flags.perCallArg, "per-call", 0, "单次请求的初始条数")
	pf.StringSliceVar(&flags.langsArg, "langs", nil, "处理的语言，如 zh,en")
	pf.StringVar(&flags.zhPathArg, "zh-path", "", "中文语料文件路径")
	pf.StringVar(&flags.enPathArg, "en-path", "", "英文语料文件路径")
	pf.DurationVar(&flags.delayArg, "delay", 0, "两次请求之间的最小间隔，如 600ms")
	pf.IntVar(&flags.maxRetriesArg, "max-retries", 0, "服务端错误的最大重试次数")
	pf.StringVar(&flags.logFileArg, "log-file", "", "JSON 日志文件路径")
	pf.BoolVar(&flags.verboseArg, "verbose", false, "输出详细 JSON 日志（机器友好）")
}

func runExpand(stdout io.Writer, flags *expandFlags, showVersion *bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if showVersion != nil && *showVersion {
			printVersion(stdout)
			return nil
		}
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("读取当前目录失败：%w", err)
		}

		opts := app.Options{
			ConfigPath: flags.configArg,
			Provider:   flags.providerArg,
			Model:      flags.modelArg,
			PerCall:    flags.perCallArg,
			Languages:  flags.langsArg,
			ZHPath:     flags.zhPathArg,
			ENPath:     flags.enPathArg,
			LogFile:    flags.logFileArg,
			Verbose:    flags.verboseArg,
			CWD:        cwd,
			Stdout:     stdout,
		}
		if cmd.Flags().Changed("target") {
			opts.Target = &flags.targetArg
		}
		if cmd.Flags().Changed("delay") {
			opts.Delay = &flags.delayArg
		}
		if cmd.Flags().Changed("max-retries") {
			opts.MaxRetries = &flags.maxRetriesArg
		}

		res, err := app.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		finalLine := fmt.Sprintf(
			"任务完成：请求 %d 次，失败语言 %d，总耗时 %s%s",
			res.Summary.Calls,
			len(res.Summary.Failed),
			logging.FormatDurationMS(res.ElapsedMS),
			formatSummaryBalance(res.Balance),
		)
		if err := res.Summary.Err(); err != nil {
			return fmt.Errorf("%s\n%w", finalLine, err)
		}
		if !flags.verboseArg {
			fmt.Fprintln(stdout, finalLine)
		}
		return nil
	}
}

func newStatusCmd(stdout io.Writer, flags *expandFlags) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "查看每个语言每档的条数与缺口",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			opts := app.StatusOptions{
				ConfigPath: flags.configArg,
				Languages:  flags.langsArg,
				ZHPath:     flags.zhPathArg,
				ENPath:     flags.enPathArg,
				CWD:        cwd,
			}
			if cmd.Flags().Changed("target") {
				opts.Target = &flags.targetArg
			}
			rows, err := app.Status(opts)
			if err != nil {
				return err
			}
			writeStatus(stdout, rows)
			return nil
		},
	}
}

func writeStatus(w io.Writer, rows []app.StatusRow) {
	lastPath := ""
	for _, r := range rows {
		if r.Path != lastPath {
			fmt.Fprintf(w, "%s（%s）\n", r.Language, r.Path)
			lastPath = r.Path
		}
		fmt.Fprintf(w, "  %-6s %d/%d 缺 %d\n", r.Tier, r.Count, r.Target, r.Deficit)
	}
}

func newSetCmd(stdout io.Writer, flags *expandFlags) *cobra.Command {
	setCmd := &cobra.Command{
		Use:           "set",
		Short:         "写入本地设置",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	setCmd.AddCommand(&cobra.Command{
		Use:           "key <provider> <api_key>",
		Short:         "把 provider 的 API key 写入 .env",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !llm.IsSupported(args[0]) {
				return fmt.Errorf("%w：%s（可选 %s）", llm.ErrUnsupportedProvider, args[0], strings.Join(llm.Supported(), ", "))
			}
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			name, path, err := app.SetKey(app.SetKeyOptions{ConfigPath: flags.configArg, Provider: args[0], Value: args[1], CWD: cwd})
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "已写入 %s 到 %s\n", name, path)
			return nil
		},
	})
	return setCmd
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "corpus-expand %s (commit %s, built %s)\n", Version, Commit, BuildTime)
}

// formatSummaryBalance is empty for providers without a balance endpoint.
func formatSummaryBalance(balance string) string {
	if strings.TrimSpace(balance) == "" {
		return ""
	}
	return "，余额：" + llm.FormatBalanceForSummary(balance)
}
