package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackExtract(t *testing.T) {
	t.Run("splits Chinese section headers", func(t *testing.T) {
		description := `岗位职责
1、负责后端服务的设计与开发
2、参与系统架构评审
任职要求
1、3年以上Python开发经验
2、熟悉Django、MySQL
技能要求
Python、Django、MySQL、Redis`

		out := fallbackExtract(description)

		require.Len(t, out.Responsibilities, 2)
		assert.Equal(t, "负责后端服务的设计与开发", out.Responsibilities[0])
		require.Len(t, out.Requirements, 2)
		assert.Contains(t, out.Skills, "Python")
		assert.Contains(t, out.Skills, "Redis")
	})

	t.Run("splits English section headers", func(t *testing.T) {
		description := `Responsibilities
- Build backend services
- Review designs
Requirements
- 3+ years of Go
`

		out := fallbackExtract(description)

		assert.Len(t, out.Responsibilities, 2)
		assert.Len(t, out.Requirements, 1)
	})

	t.Run("derives skills from requirements when no skills section exists", func(t *testing.T) {
		description := `任职要求
熟悉Python、Django、MySQL`

		out := fallbackExtract(description)

		assert.NotEmpty(t, out.Skills)
	})

	t.Run("unstructured text yields empty lists, not junk", func(t *testing.T) {
		out := fallbackExtract("一段没有任何小节标题的自由文本。")

		assert.Empty(t, out.Responsibilities)
		assert.Empty(t, out.Requirements)
	})
}
