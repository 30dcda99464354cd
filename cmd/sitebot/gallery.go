package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/sitebot/internal/app"
	"github.com/John-Robertt/sitebot/internal/app/index"
	"github.com/John-Robertt/sitebot/internal/config"
	"github.com/John-Robertt/sitebot/internal/domain"
)

func newGalleryCmd(c *cli) *cobra.Command {
	var ga config.GalleryArgs
	cmd := &cobra.Command{
		Use:   "gallery [root]",
		Short: "扫描 gallery 目录，生成图片/页面配对的 JSON manifest",
		Long: `扫描 root 下每个直接子目录，把同名的图片（jpg/jpeg/png/gif/webp）与页面（html/md）配对。

dry-run（默认）把 manifest 打到 stdout；--apply 原子写入 --out。
root 默认读 GALLERY_ROOT，最终默认 web/Dinamico。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				ga.Root = args[0]
			}
			ga.PrefixSet = cmd.Flags().Changed("prefix")
			return c.runGallery(cmd, ga)
		},
	}

	f := cmd.Flags()
	f.StringVar(&ga.Out, "out", "", "manifest 输出路径（默认 <root>/data.json）")
	f.StringVar(&ga.Prefix, "prefix", "", "条目路径前缀（默认：相对 root 本身；绝对 root 时为空）")
	f.StringArrayVar(&ga.Folders, "folder", nil, "只索引指定的子目录（可重复）")
	return cmd
}

func (c *cli) runGallery(cmd *cobra.Command, ga config.GalleryArgs) error {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(c.stderr, "读取当前目录失败：%v\n", err)
		return exitError{code: 1}
	}

	cfg, err := config.LoadGallery(cwd, c.cliArgs(cmd), ga)
	if err != nil {
		c.log.Error("gallery 配置无效", zap.String("error_code", config.Code(err)), zap.Error(err))
		fmt.Fprintf(c.stderr, "配置错误：%v\n", err)
		return exitError{code: 1}
	}

	var obs app.Observer
	if w, interactive := c.pickProgressWriter(); interactive {
		obs = newStageUI(w)
	}

	m, rep := index.Execute(cmd.Context(), cfg, c.log, obs)

	if !cfg.Apply {
		b, err := index.Encode(m)
		if err != nil {
			fmt.Fprintf(c.stderr, "编码 manifest 失败：%v\n", err)
			return exitError{code: 1}
		}
		_, _ = c.stdout.Write(b)
		fmt.Fprintln(c.stderr, gallerySummary(rep))
		return nil
	}

	c.emitReport(rep, gallerySummary(rep))
	return nil
}

func gallerySummary(rep domain.GalleryReport) string {
	s := fmt.Sprintf("完成：folders=%d entries=%d degraded=%d", len(rep.Folders), rep.Entries, rep.Degraded)
	switch {
	case rep.DryRun:
		s += " (dry-run)"
	case rep.WriteError != "":
		s += " write_error=" + rep.WriteError
	default:
		s += " out=" + rep.Output
	}
	return s
}
