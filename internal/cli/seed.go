package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/draftsync/internal/config"
	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/revision"
	"github.com/draftsync/internal/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func init() {
	dbCmd.AddCommand(seedCmd())
}

func seedCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo users and revision chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			gdb, err := db.Init(cfg.DatabasePath, db.Options{Silent: true})
			if err != nil {
				return err
			}
			return seed(cmd.Context(), gdb, cmd.OutOrStdout())
		},
	}

	return command
}

type seedPost struct {
	title   string
	content string
	// edits are saved as one revision each, the last one is submitted
	edits   []string
	publish bool
}

var seedPosts = []seedPost{
	{
		title:   "欢迎使用 draftsync",
		content: "# 你好\n\n这是第一篇已发布的文章。",
		edits:   []string{"# 你好\n\n这是第一篇已发布的文章，已经修订过一次。"},
		publish: true,
	},
	{
		title:   "待同步的修订",
		content: "原始内容",
		edits:   []string{"第一次修改", "第二次修改"},
	},
	{
		title:   "新草稿",
		content: "还没有提交过的草稿。",
	},
}

// 测试数据生成器
func seed(ctx context.Context, gdb *gorm.DB, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var count int64
	if err := gdb.Model(&db.Post{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		fmt.Fprintln(out, "文章已存在，跳过创建")
		return nil
	}

	if err := db.EnsureUser(gdb, "admin", "admin123", db.RoleAdministrator); err != nil {
		return err
	}
	if err := db.EnsureUser(gdb, "contributor", "user123", db.RoleContributor); err != nil {
		return err
	}

	var admin db.User
	if err := gdb.Where("username = ?", "admin").First(&admin).Error; err != nil {
		return err
	}

	posts := service.NewPostService(gdb, service.NewChainLocks())
	syncer := service.NewSyncService(gdb, posts, service.NewPublicationUploader(gdb))

	for _, p := range seedPosts {
		chain, err := posts.Create(service.PostInput{Title: p.title, Content: p.content, UserID: admin.ID})
		if err != nil {
			return err
		}

		for _, edit := range p.edits {
			rev, err := posts.CreateRevision(chain.RootID, admin.ID)
			if err != nil {
				return err
			}
			content := edit
			if _, err := posts.UpdateRevision(rev.ID, revision.UpdateParameters{Content: &content}); err != nil {
				return err
			}
			if _, err := posts.Submit(chain.RootID, service.SubmitInput{Status: revision.StatusDraft}, admin); err != nil {
				return err
			}
		}

		if p.publish {
			if _, err := posts.Submit(chain.RootID, service.SubmitInput{Status: revision.StatusPublish}, admin); err != nil {
				return err
			}
			if _, err := syncer.Sync(ctx, chain.RootID); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "✅ %s\n", p.title)
	}

	fmt.Fprintln(out, "测试数据生成完成！")
	fmt.Fprintln(out, "用户: admin (密码: admin123), contributor (密码: user123)")
	return nil
}
