package service

import (
	"testing"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/modules/submitter/model"
	"github.com/stretchr/testify/assert"
)

func submitConfig() config.SubmitConfig {
	return config.DefaultPipelineConfig().Submit
}

func TestClassify(t *testing.T) {
	cfg := submitConfig()

	t.Run("suspension phrase outranks everything", func(t *testing.T) {
		d := &model.Detection{
			PageSource:  "<html>很抱歉，你选择的职位目前已经暂停招聘</html>",
			ButtonFound: true,
			ButtonText:  "立即申请",
		}
		assert.Equal(t, model.StatusJobSuspended, classify(d, cfg))
	})

	t.Run("expiration phrase ranks above login", func(t *testing.T) {
		d := &model.Detection{
			PageSource: "职位已过期 请先登录",
		}
		assert.Equal(t, model.StatusJobExpired, classify(d, cfg))
	})

	t.Run("login phrase detected", func(t *testing.T) {
		d := &model.Detection{PageSource: "请先登录后查看职位详情"}
		assert.Equal(t, model.StatusLoginRequired, classify(d, cfg))
	})

	t.Run("applied button text", func(t *testing.T) {
		d := &model.Detection{
			PageSource:  "<html>职位详情</html>",
			ButtonFound: true,
			ButtonText:  "已申请",
		}
		assert.Equal(t, model.StatusAlreadyApplied, classify(d, cfg))
	})

	t.Run("disabled button class", func(t *testing.T) {
		d := &model.Detection{
			PageSource:  "<html>职位详情</html>",
			ButtonFound: true,
			ButtonText:  "立即申请",
			ButtonClass: "btn btn-off",
		}
		assert.Equal(t, model.StatusAlreadyApplied, classify(d, cfg))
	})

	t.Run("class matching respects word boundaries", func(t *testing.T) {
		d := &model.Detection{
			PageSource:  "<html>职位详情</html>",
			ButtonFound: true,
			ButtonText:  "立即申请",
			ButtonClass: "offer-btn",
		}
		// "offer-btn" must not trigger the "off" indicator
		assert.Equal(t, model.StatusPending, classify(d, cfg))
	})

	t.Run("clickable apply button is pending", func(t *testing.T) {
		d := &model.Detection{
			PageSource:  "<html>职位详情</html>",
			ButtonFound: true,
			ButtonText:  "立即沟通",
			ButtonClass: "btn-primary",
		}
		assert.Equal(t, model.StatusPending, classify(d, cfg))
	})

	t.Run("no button found", func(t *testing.T) {
		d := &model.Detection{PageSource: "<html>职位详情</html>"}
		assert.Equal(t, model.StatusButtonNotFound, classify(d, cfg))
	})

	t.Run("button without an apply verb is not pending", func(t *testing.T) {
		d := &model.Detection{
			PageSource:  "<html>职位详情</html>",
			ButtonFound: true,
			ButtonText:  "收藏",
		}
		assert.Equal(t, model.StatusButtonNotFound, classify(d, cfg))
	})
}
