package models_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grambudget/grambudget/internal/models"
)

func TestMessageText(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{
			name: "Single part",
			msg:  models.NewTextMessage("1", models.RoleUser, "What is MGNREGA?"),
			want: "What is MGNREGA?",
		},
		{
			name: "Parts in order",
			msg: models.Message{
				ID:   "2",
				Role: models.RoleAssistant,
				Parts: []models.Part{
					{Type: models.PartTypeText, Text: "Gram "},
					{Type: "reasoning", Text: "ignored"},
					{Type: models.PartTypeText, Text: "Panchayat"},
				},
			},
			want: "Gram Panchayat",
		},
		{
			name: "No parts",
			msg:  models.Message{ID: "3", Role: models.RoleAssistant},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoleValidate(t *testing.T) {
	tests := []struct {
		role    models.Role
		wantErr bool
	}{
		{role: models.RoleUser},
		{role: models.RoleAssistant},
		{role: "system", wantErr: true},
		{role: "tool", wantErr: true},
		{role: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if err := tt.role.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloneMessagesIsDeep(t *testing.T) {
	orig := []models.Message{models.NewTextMessage("1", models.RoleUser, "hello")}
	c := models.CloneMessages(orig)
	c[0].Parts[0].Text = "changed"

	if orig[0].Parts[0].Text != "hello" {
		t.Errorf("changing the clone changed the original: %q", orig[0].Parts[0].Text)
	}
}

func TestMessageWireShape(t *testing.T) {
	b, err := json.Marshal(models.NewTextMessage("m1", models.RoleUser, "hi"))
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"id":   "m1",
		"role": "user",
		"parts": []any{
			map[string]any{"type": "text", "text": "hi"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}
