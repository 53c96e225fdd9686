package models

// Account is the capability shared by every account variant that can receive
// a verification code. The set of variants is closed: PlayerAccount and AdminAccount.
type Account interface {
	Email() string
	VerificationCode() string
	// MailSubject and MailNotice shape the verification email; an empty notice is omitted.
	MailSubject() string
	MailNotice() string
	account()
}

type PlayerAccount struct {
	Player *Player
	Code   string
}

func (a PlayerAccount) Email() string            { return a.Player.Email }
func (a PlayerAccount) VerificationCode() string { return a.Code }
func (PlayerAccount) MailSubject() string        { return "Код входа" }
func (PlayerAccount) MailNotice() string         { return "" }
func (PlayerAccount) account()                   {}

type AdminAccount struct {
	Admin *Player
	Code  string
}

func (a AdminAccount) Email() string            { return a.Admin.Email }
func (a AdminAccount) VerificationCode() string { return a.Code }
func (AdminAccount) MailSubject() string        { return "Код входа администратора" }
func (AdminAccount) MailNotice() string {
	return "Этот код открывает доступ к управлению турнирами. Никому его не сообщайте."
}
func (AdminAccount) account() {}

// NewAccount picks the variant from the user's role.
func NewAccount(p *Player, code string) Account {
	if p.Role == RoleAdmin {
		return AdminAccount{Admin: p, Code: code}
	}
	return PlayerAccount{Player: p, Code: code}
}
