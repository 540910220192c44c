package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/page-comments/backend/internal/models"
)

// SeedDemoData fills empty stores with the demo page used when no live
// credentials are configured. Comment ids carry the synthetic prefix so
// replies to them never leave the process.
func SeedDemoData(ctx context.Context, comments CommentRepository, templates TemplateRepository, now time.Time) error {
	existing, err := templates.List(ctx)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	if len(existing) == 0 {
		for _, req := range demoTemplates() {
			if _, err := templates.Create(ctx, req); err != nil {
				return fmt.Errorf("seed template %q: %w", req.Name, err)
			}
		}
	}

	posts := map[string]models.Post{
		"post_1": {ID: "post_1", Message: "مرحباً بكم في صفحتنا التجريبية! 🎉"},
		"post_2": {ID: "post_2", Message: "نحن سعداء بلقائكم هنا 👋"},
		"post_3": {ID: "post_3", Message: "شكراً لكم على دعمكم المستمر ❤️"},
	}

	for _, seed := range demoComments(now) {
		c, created, err := comments.Ingest(ctx, seed.comment, posts[seed.postID])
		if err != nil {
			return fmt.Errorf("seed comment %s: %w", seed.comment.ID, err)
		}
		if !created {
			continue
		}
		switch seed.status {
		case models.StatusFlagged:
			if _, err := comments.SetStatus(ctx, c.ID, models.StatusFlagged); err != nil {
				return err
			}
		case models.StatusReplied:
			if _, err := comments.RecordReply(ctx, c.ID, seed.reply); err != nil {
				return err
			}
		}
	}
	return nil
}

func demoTemplates() []models.CreateTemplateRequest {
	return []models.CreateTemplateRequest{
		{
			Name:     "رد شكر عام",
			Content:  "شكراً لك على التعليق الجميل! 😊 نحن سعداء أن المحتوى أعجبك.",
			Triggers: models.Triggers{"شكراً", "ممتاز", "رائع", "جميل"},
		},
		{
			Name:     "رد ترحيب",
			Content:  "أهلاً وسهلاً بك! 🎉 نحن سعداء بلقائك في صفحتنا.",
			Triggers: models.Triggers{"أهلاً", "مرحباً", "أول مرة", "جديد"},
		},
		{
			Name:     "رد دعم",
			Content:  "شكراً لكم على دعمكم المستمر! ❤️ نحن نقدر ذلك كثيراً.",
			Triggers: models.Triggers{"دعم", "استمروا", "أحب", "متابع"},
		},
	}
}

type demoComment struct {
	comment models.Comment
	postID  string
	status  models.CommentStatus
	reply   models.Reply
}

func demoComments(now time.Time) []demoComment {
	ago := func(d time.Duration) time.Time { return now.Add(-d).UTC() }
	return []demoComment{
		{
			comment: models.Comment{ID: "comment_1", Message: "أهلاً وسهلاً! الصفحة جميلة جداً 😊", CreatedTime: ago(time.Hour),
				From: &models.Author{Name: "أحمد محمد", ID: "user_1"}, CommentCount: 2, LikeCount: 5},
			postID: "post_1",
			status: models.StatusPending,
		},
		{
			comment: models.Comment{ID: "comment_2", Message: "محتوى رائع ومفيد 👍", CreatedTime: ago(2 * time.Hour),
				From: &models.Author{Name: "فاطمة علي", ID: "user_2"}, LikeCount: 3},
			postID: "post_2",
			status: models.StatusReplied,
			reply:  models.Reply{ID: "reply_1", Message: "شكراً لك على التعليق الجميل! 😊", CreatedAt: ago(30 * time.Minute)},
		},
		{
			comment: models.Comment{ID: "comment_3", Message: "أتمنى المزيد من المحتوى المميز 🌟", CreatedTime: ago(3 * time.Hour),
				From: &models.Author{Name: "محمد أحمد", ID: "user_3"}, CommentCount: 1, LikeCount: 7},
			postID: "post_3",
			status: models.StatusPending,
		},
		{
			comment: models.Comment{ID: "comment_4", Message: "شكراً لكم على هذا العمل الرائع 💕", CreatedTime: ago(4 * time.Hour),
				From: &models.Author{Name: "سارة خالد", ID: "user_4"}, LikeCount: 4},
			postID: "post_1",
			status: models.StatusFlagged,
		},
		{
			comment: models.Comment{ID: "comment_5", Message: "أحب المحتوى كثيراً، استمروا 👏", CreatedTime: ago(5 * time.Hour),
				From: &models.Author{Name: "خالد سعد", ID: "user_5"}, LikeCount: 6},
			postID: "post_2",
			status: models.StatusReplied,
			reply:  models.Reply{ID: "reply_2", Message: "نحن سعداء أن المحتوى أعجبك 🌟", CreatedAt: ago(time.Hour)},
		},
	}
}
