package lending

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net/url"
	"strings"

	"storyswap/internal/alert"
	"storyswap/internal/mail"
)

// Validation failures, mapped to 400 responses at the boundary.
var (
	ErrMissingFields = errors.New("missing required fields")
	ErrMissingParams = errors.New("missing required params")
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// Request carries one borrow request from the inbound body to one outbound
// email. It is never persisted; the action links in that email are the only
// token the workflow has.
type Request struct {
	LenderEmail   string `json:"lenderEmail"`
	LenderName    string `json:"lenderName"`
	BorrowerName  string `json:"borrowerName"`
	BorrowerEmail string `json:"borrowerEmail"`
	BookTitle     string `json:"bookTitle"`
}

// Response is the lender's decision, reconstructed entirely from the query
// parameters of the link they clicked.
type Response struct {
	Action        string
	BorrowerEmail string
	BookTitle     string
	LenderName    string
}

// StatusDisplay derives the decision label shown to the borrower. Anything
// other than "accept" counts as declined.
func (r Response) StatusDisplay() string {
	if r.Action == ActionAccept {
		return "✔️ ACCEPTED"
	}
	return "❌ DECLINED"
}

// Service builds and sends the two workflow emails.
type Service struct {
	sender  mail.Sender
	alerts  alert.Notifier
	baseURL string
}

func NewService(sender mail.Sender, alerts alert.Notifier, baseURL string) *Service {
	return &Service{
		sender:  sender,
		alerts:  alerts,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SubmitRequest emails the lender with accept/decline links. It reports
// whether the email went out; validation failures never reach the transport.
func (s *Service) SubmitRequest(ctx context.Context, req Request) (bool, error) {
	if req.LenderEmail == "" || req.BorrowerEmail == "" || req.BookTitle == "" {
		return false, ErrMissingFields
	}

	subject := fmt.Sprintf("Borrow Request for '%s'", req.BookTitle)
	sent := s.sender.Send(ctx, req.LenderEmail, subject, s.requestBody(req))
	if !sent {
		s.alerts.Notify(ctx, fmt.Sprintf("borrow request email to %s failed (book %q)", req.LenderEmail, req.BookTitle))
	}
	return sent, nil
}

// Respond emails the lender's decision to the borrower. The decision counts
// as recorded by the click itself, so callers acknowledge the lender even
// when this send fails.
func (s *Service) Respond(ctx context.Context, resp Response) (bool, error) {
	if resp.Action == "" || resp.BorrowerEmail == "" || resp.BookTitle == "" || resp.LenderName == "" {
		return false, ErrMissingParams
	}

	status := resp.StatusDisplay()
	subject := fmt.Sprintf("Your Book Request Has Been %s", status)
	sent := s.sender.Send(ctx, resp.BorrowerEmail, subject, s.responseBody(resp, status))
	if !sent {
		log.Printf("lending: decision recorded but borrower notification to %s failed", resp.BorrowerEmail)
		s.alerts.Notify(ctx, fmt.Sprintf("decision email to %s failed (book %q)", resp.BorrowerEmail, resp.BookTitle))
	}
	return sent, nil
}

// actionLink builds one respond-request URL. Values are always
// percent-encoded so titles with spaces or ampersands survive the trip.
func (s *Service) actionLink(action string, req Request) string {
	q := url.Values{}
	q.Set("action", action)
	q.Set("borrowerEmail", req.BorrowerEmail)
	q.Set("bookTitle", req.BookTitle)
	q.Set("lenderName", req.LenderName)
	return s.baseURL + "/respond-request?" + q.Encode()
}

func (s *Service) requestBody(req Request) string {
	lender := req.LenderName
	if lender == "" {
		lender = "Lender"
	}

	return fmt.Sprintf(`
<html>
<body style='font-family: Arial, sans-serif;'>
	<h3>Dear %s,</h3>

	<p>The following user has expressed interest in borrowing your book:</p>

	<p><strong>Borrower:</strong> %s (%s)<br>
	   <strong>Book Title:</strong> "%s"</p>

	<p>Please choose one of the following options:</p>

	<a href="%s"
	   style="background:#2E7D32;color:white;padding:10px 20px;border-radius:5px;text-decoration:none;">
	   Accept Request
	</a>

	<a href="%s"
	   style="background:#C62828;color:white;padding:10px 20px;border-radius:5px;text-decoration:none;margin-left:10px;">
	   Decline Request
	</a>

	<p style="margin-top:20px;font-size:14px;color:#555;">
		This link will remain active for 7 days.
	</p>
</body>
</html>
`,
		html.EscapeString(lender),
		html.EscapeString(req.BorrowerName),
		html.EscapeString(req.BorrowerEmail),
		html.EscapeString(req.BookTitle),
		s.actionLink(ActionAccept, req),
		s.actionLink(ActionDecline, req),
	)
}

func (s *Service) responseBody(resp Response, status string) string {
	return fmt.Sprintf(`
<html>
<body style='font-family: Arial, sans-serif;'>
	<h3>Request Update</h3>

	<p>Your request to borrow the following book has been reviewed:</p>

	<p><strong>Book Title:</strong> "%s"<br>
	   <strong>Status:</strong> %s<br>
	   <strong>Responded By:</strong> %s</p>

	<p>If you have any further questions, feel free to contact the lender directly.</p>
</body>
</html>
`,
		html.EscapeString(resp.BookTitle),
		status,
		html.EscapeString(resp.LenderName),
	)
}
