package services

import (
	"testing"

	"github.com/Dosada05/tournament-ladder/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVerificationEmail(t *testing.T) {
	player := &models.Player{Name: "ann", Email: "ann@example.com", Role: models.RolePlayer}
	admin := &models.Player{Name: "root", Email: "root@example.com", Role: models.RoleAdmin}

	tests := []struct {
		name        string
		account     models.Account
		wantSubject string
		wantNotice  bool
	}{
		{"player", models.NewAccount(player, "123456"), "Код входа", false},
		{"admin", models.NewAccount(admin, "654321"), "Код входа администратора", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := renderVerificationEmail(tt.account)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, subject)
			assert.Contains(t, body, "<b>"+tt.account.VerificationCode()+"</b>")
			if tt.wantNotice {
				assert.Contains(t, body, tt.account.MailNotice())
			} else {
				assert.NotContains(t, body, "Никому его не сообщайте")
			}
		})
	}
}
