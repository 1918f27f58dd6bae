package windowing_test

import (
	"github.com/petasbytes/go-chat/internal/provider"
	"github.com/petasbytes/go-chat/internal/windowing"
)

func Sys(text string) provider.Message  { return provider.Message{Role: provider.RoleSystem, Content: text} }
func User(text string) provider.Message { return provider.Message{Role: provider.RoleUser, Content: text} }
func Asst(text string) provider.Message { return provider.Message{Role: provider.RoleAssistant, Content: text} }

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func contents(msgs []provider.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
