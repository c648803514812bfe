package submit

import (
	"html"
	"time"

	"github.com/baechuer/buyway-mail/internal/domain"
)

// TimestampLayout matches the ru-RU locale date/time rendering.
const TimestampLayout = "02.01.2006, 15:04:05"

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Renderer struct {
	subject string
	clock   Clock
}

func NewRenderer(subject string, clock Clock) *Renderer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Renderer{subject: subject, clock: clock}
}

// Render builds the notification for an already validated submission.
func (r *Renderer) Render(s domain.Submission) domain.RenderedMessage {
	replyTo, _ := s.ReplyTo()
	return domain.RenderedMessage{
		Subject: r.subject,
		HTML:    r.renderHTML(s),
		ReplyTo: replyTo,
	}
}

func (r *Renderer) renderHTML(s domain.Submission) string {
	// html.EscapeString covers exactly & < > " '
	escName := html.EscapeString(s.Name)
	escContact := html.EscapeString(s.Contact)
	escLink := html.EscapeString(s.LinkOrPlaceholder())
	escComment := html.EscapeString(s.CommentOrPlaceholder())
	stamp := r.clock.Now().Format(TimestampLayout)

	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + html.EscapeString(r.subject) + `</h2>
    <p><b>Имя:</b> ` + escName + `</p>
    <p><b>Контакт:</b> ` + escContact + `</p>
    <p><b>Ссылка:</b> ` + escLink + `</p>
    <p><b>Комментарий:</b> ` + escComment + `</p>
    <p style="color:#555; font-size:12px;"><i>` + stamp + `</i></p>
  </body>
</html>`
}
