package img

import (
	"errors"
	"slices"
	"testing"

	"github.com/woozymasta/pathrules"
)

func TestSelect(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Name: "VIRGO.DFF"},
		{Name: "virgo.txd"},
		{Name: "LANDSTAL.DFF"},
		{Name: "radar00.txd"},
	}

	testCases := []struct {
		name  string
		rules []pathrules.Rule
		want  []int
	}{
		{name: "empty selects all", want: []int{0, 1, 2, 3}},
		{
			name:  "include only",
			rules: []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "*.dff"}},
			want:  []int{0, 2},
		},
		{
			name:  "exclude only",
			rules: []pathrules.Rule{{Action: pathrules.ActionExclude, Pattern: "radar*"}},
			want:  []int{0, 1, 2},
		},
		{
			name: "include then exclude",
			rules: []pathrules.Rule{
				{Action: pathrules.ActionInclude, Pattern: "virgo.*"},
				{Action: pathrules.ActionExclude, Pattern: "*.txd"},
			},
			want: []int{0},
		},
		{
			name:  "blank patterns ignored",
			rules: []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "  "}},
			want:  []int{0, 1, 2, 3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Select(entries, tc.rules, pathrules.MatcherOptions{})
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Select=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestSelect_InvalidRules(t *testing.T) {
	t.Parallel()

	_, err := Select([]Entry{{Name: "A"}}, []pathrules.Rule{
		{Action: pathrules.ActionUnknown, Pattern: "*.dff"},
	}, pathrules.MatcherOptions{})
	if !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("err=%v, want ErrInvalidRules", err)
	}
}

func TestSelectMatcherOptions(t *testing.T) {
	t.Parallel()

	got := selectMatcherOptions(nil, pathrules.MatcherOptions{})
	if !got.CaseInsensitive || got.DefaultAction != pathrules.ActionInclude {
		t.Fatalf("defaults=%+v", got)
	}

	got = selectMatcherOptions([]pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "*"}}, pathrules.MatcherOptions{})
	if got.DefaultAction != pathrules.ActionExclude {
		t.Fatalf("DefaultAction=%v, want exclude", got.DefaultAction)
	}

	got = selectMatcherOptions(nil, pathrules.MatcherOptions{DefaultAction: pathrules.ActionExclude})
	if got.CaseInsensitive {
		t.Fatal("explicit options were overridden")
	}
}
