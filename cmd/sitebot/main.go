package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/sitebot/internal/config"
	"github.com/John-Robertt/sitebot/internal/infra/logx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli 持有一次进程调用的全部状态（flag 值、logger、退出码）。
type cli struct {
	stdout io.Writer
	stderr io.Writer

	verbose bool
	envFile string
	apply   bool
	policy  string

	log  *zap.Logger
	code int
}

// exitError 让子命令在不打印 cobra 错误的情况下指定退出码。
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// run 是可测试的入口：退出码 0=成功或投稿被拒绝，1=运行失败，2=用法错误。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.log != nil {
		_ = c.log.Sync()
	}
	var ee exitError
	switch {
	case err == nil:
		return c.code
	case errors.As(err, &ee):
		return ee.code
	default:
		fmt.Fprintf(stderr, "错误：%v\n", err)
		return 2
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitebot",
		Short:         "静态站点的 gallery 索引与投稿处理工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(c.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			l, err := logx.New(c.verbose)
			if err != nil {
				return fmt.Errorf("初始化 logger 失败：%w", err)
			}
			c.log = l.With(zap.String("run_id", uuid.NewString()), zap.String("command", cmd.Name()))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "输出 debug 日志")
	pf.StringVar(&c.envFile, "env-file", ".env", "启动前加载的 .env 文件（不覆盖已有环境变量）")
	pf.BoolVar(&c.apply, "apply", false, "执行写入/提交/回帖（默认 dry-run）；--apply=false 可覆盖 SITEBOT_APPLY")
	pf.StringVar(&c.policy, "policy", "", "YAML 策略文件（默认读 SITEBOT_POLICY_FILE）")

	root.AddCommand(newGalleryCmd(c), newTriageCmd(c))
	return root
}

// cliArgs 把共享 flag 转成 config 层的输入，保留“是否显式指定”。
func (c *cli) cliArgs(cmd *cobra.Command) config.CLIArgs {
	return config.CLIArgs{
		Apply:      c.apply,
		ApplySet:   cmd.Flags().Changed("apply"),
		PolicyFile: c.policy,
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// pickProgressWriter 只在交互终端启用阶段输出；默认走 stderr（不污染 stdout JSON）。
func (c *cli) pickProgressWriter() (io.Writer, bool) {
	if isTTY(c.stderr) {
		return c.stderr, true
	}
	if isTTY(c.stdout) {
		return c.stdout, true
	}
	return nil, false
}
