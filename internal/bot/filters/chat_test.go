package filters

import (
	"testing"

	"github.com/mymmrac/telego"
)

func TestCheckAccess(t *testing.T) {
	user := &telego.User{ID: 5}
	bot := &telego.User{ID: 6, IsBot: true}

	tests := []struct {
		name    string
		allowed int64
		msg     *telego.Message
		want    bool
	}{
		{"nil", 0, nil, false},
		{"private", 0, &telego.Message{Chat: telego.Chat{ID: 5, Type: telego.ChatTypePrivate}, From: user}, true},
		{"no sender", 0, &telego.Message{Chat: telego.Chat{ID: -1, Type: telego.ChatTypeChannel}}, false},
		{"bot sender", 0, &telego.Message{Chat: telego.Chat{ID: 6, Type: telego.ChatTypePrivate}, From: bot}, false},
		{"group not allowed", 0, &telego.Message{Chat: telego.Chat{ID: -100, Type: telego.ChatTypeSupergroup}, From: user}, false},
		{"allowed group", -100, &telego.Message{Chat: telego.Chat{ID: -100, Type: telego.ChatTypeSupergroup}, From: user}, true},
		{"other group", -100, &telego.Message{Chat: telego.Chat{ID: -200, Type: telego.ChatTypeGroup}, From: user}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewChatFilter(tt.allowed).CheckAccess(tt.msg); got != tt.want {
				t.Fatalf("CheckAccess = %v, want %v", got, tt.want)
			}
		})
	}
}
