package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stanza/apierr"
	"stanza/models"
)

func TestValidateContentDefaults(t *testing.T) {
	in := &ContentInput{Slug: "about", Title: "About"}
	require.NoError(t, ValidateContent(in, time.Now()))
	assert.Equal(t, "en", in.Locale)
	assert.Equal(t, "draft", in.Status)
}

func TestValidateContentSlug(t *testing.T) {
	cases := []struct {
		slug string
		ok   bool
	}{
		{"about", true},
		{"about-us", true},
		{"page-2", true},
		{"", false},
		{"About", false},
		{"about us", false},
		{"über", false},
		{"a/b", false},
	}

	for _, tc := range cases {
		in := &ContentInput{Slug: tc.slug, Title: "t"}
		err := ValidateContent(in, time.Now())
		if tc.ok {
			assert.NoError(t, err, tc.slug)
		} else {
			assert.Error(t, err, tc.slug)
		}
	}
}

func TestValidateContentLocaleAndStatus(t *testing.T) {
	in := &ContentInput{Slug: "about", Title: "t", Locale: "pt"}
	err := ValidateContent(in, time.Now())
	require.Error(t, err)

	var verr *apierr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "locale", verr.Fields[0].Field)

	in = &ContentInput{Slug: "about", Title: "t", Status: "live"}
	err = ValidateContent(in, time.Now())
	require.Error(t, err)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Fields[0].Field)
}

func TestValidateContentScheduled(t *testing.T) {
	future := time.Now().Add(time.Hour)
	in := &ContentInput{Slug: "about", Title: "t", Status: "scheduled", ScheduledAt: &future}
	assert.NoError(t, ValidateContent(in, time.Now()))

	in = &ContentInput{Slug: "about", Title: "t", Status: "scheduled"}
	assert.Error(t, ValidateContent(in, time.Now()))
}

func TestValidateContentBlockList(t *testing.T) {
	bad := -1
	blocks := []BlockInput{
		{Type: "hero"},
		{Type: "carousel"},
		{Type: "faq", Order: &bad},
	}
	in := &ContentInput{Slug: "about", Title: "t", Blocks: &blocks}

	err := ValidateContent(in, time.Now())
	require.Error(t, err)

	var verr *apierr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "blocks[1].type", verr.Fields[0].Field)
	assert.Equal(t, "blocks[2].order", verr.Fields[1].Field)
}

func TestValidateBlockParent(t *testing.T) {
	pt, id, err := ValidateBlockParent(BlockParentInput{PageID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.ParentPage, pt)
	assert.Equal(t, "p1", id)

	pt, id, err = ValidateBlockParent(BlockParentInput{CaseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.ParentCase, pt)
	assert.Equal(t, "c1", id)

	_, _, err = ValidateBlockParent(BlockParentInput{})
	assert.Error(t, err)

	_, _, err = ValidateBlockParent(BlockParentInput{PageID: "p1", PostID: "b1"})
	assert.Error(t, err)
}

func TestKnownBlockTypes(t *testing.T) {
	for _, bt := range []string{
		"hero", "featureGrid", "testimonial", "logoCloud", "metrics",
		"richText", "faq", "priceTable", "comparison", "contactForm", "media",
	} {
		assert.True(t, KnownBlockType(bt), bt)
	}
	assert.False(t, KnownBlockType("carousel"))
	assert.False(t, KnownBlockType(""))
}

func TestSanitizeBlockDataDropsUnknownKeys(t *testing.T) {
	out := SanitizeBlockData("hero", map[string]any{
		"heading":  "Welcome",
		"cta_url":  "/contact",
		"__proto_": "x",
		"style":    "position:fixed",
	})

	assert.Equal(t, "Welcome", out["heading"])
	assert.Equal(t, "/contact", out["cta_url"])
	assert.NotContains(t, out, "__proto_")
	assert.NotContains(t, out, "style")
}

func TestSanitizeBlockDataScrubsMarkup(t *testing.T) {
	out := SanitizeBlockData("richText", map[string]any{
		"markdown": "hello <script>alert(1)</script> world",
	})
	assert.Equal(t, "hello  world", out["markdown"])

	out = SanitizeBlockData("hero", map[string]any{
		"cta_url": "javascript:alert(1)",
	})
	assert.Equal(t, "", out["cta_url"])

	out = SanitizeBlockData("hero", map[string]any{
		"heading": `<img src=x onerror=alert(1)>`,
	})
	assert.NotContains(t, out["heading"], "onerror=")
}

func TestSanitizeBlockDataNested(t *testing.T) {
	out := SanitizeBlockData("faq", map[string]any{
		"items": []any{
			map[string]any{"q": "Why?", "a": "Because <script>x()</script>."},
		},
	})

	items := out["items"].([]any)
	item := items[0].(map[string]any)
	assert.Equal(t, "Because .", item["a"])
}
