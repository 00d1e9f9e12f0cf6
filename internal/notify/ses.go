package notify

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	"conversionloader/internal/tags"
)

// sesAPI is the subset of the SES client used; fakes satisfy it in tests.
type sesAPI interface {
	SendEmailWithContext(ctx aws.Context, in *ses.SendEmailInput, opts ...request.Option) (*ses.SendEmailOutput, error)
}

// SES sends the file-processed email through Amazon SES with an HTML body
// and a plain-text alternative.
type SES struct {
	client    sesAPI
	sender    string
	recipient string
	appURL    string // storage-browser base URL used for deep links
}

// NewSES builds an SES notifier from an AWS session.
func NewSES(sess *session.Session, sender, recipient, appURL string) *SES {
	return &SES{client: ses.New(sess), sender: sender, recipient: recipient, appURL: appURL}
}

// FileProcessed emails the configured recipient a link to the relocated
// file: the storage-browser deep link plus a presigned URL when available.
func (n *SES) FileProcessed(ctx context.Context, bucket, key, link string, fileTags tags.Set) error {
	fileName := path.Base(key)
	deepLink := fmt.Sprintf("%s?prefix=%s&file=%s", n.appURL, strings.ReplaceAll(key, "/", "%2F"), fileName)

	subject := fmt.Sprintf("File Notification: %s", fileName)
	htmlBody := renderHTML(fileName, bucket, key, deepLink, link)
	textBody := renderText(fileName, bucket, key, deepLink)

	_, err := n.client.SendEmailWithContext(ctx, &ses.SendEmailInput{
		Source: aws.String(n.sender),
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(n.recipient)},
		},
		Message: &ses.Message{
			Subject: &ses.Content{Data: aws.String(subject)},
			Body: &ses.Body{
				Html: &ses.Content{Data: aws.String(htmlBody)},
				Text: &ses.Content{Data: aws.String(textBody)},
			},
		},
	})
	return err
}

func renderHTML(fileName, bucket, key, deepLink, presigned string) string {
	var sb strings.Builder
	sb.WriteString("<html><head></head><body>")
	sb.WriteString("<h2>File Notification</h2>")
	sb.WriteString("<p>A file has been processed and is now available in the storage browser.</p>")
	sb.WriteString("<h3>File Details:</h3><ul>")
	fmt.Fprintf(&sb, "<li><strong>File Name:</strong> %s</li>", fileName)
	fmt.Fprintf(&sb, "<li><strong>Bucket:</strong> %s</li>", bucket)
	fmt.Fprintf(&sb, "<li><strong>Location:</strong> %s</li>", key)
	sb.WriteString("</ul>")
	fmt.Fprintf(&sb, `<p><a href="%s">Click here to access the file</a></p>`, deepLink)
	if presigned != "" {
		fmt.Fprintf(&sb, `<p>Direct download (expires in one hour): <a href="%s">%s</a></p>`, presigned, fileName)
	}
	sb.WriteString("<p><strong>Note:</strong> You will need to log in first. After logging in, you will be directed to the file.</p>")
	sb.WriteString("<p>This email was sent automatically. Please do not reply to this message.</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}

func renderText(fileName, bucket, key, deepLink string) string {
	return fmt.Sprintf(`File Notification

A file has been processed and is now available in the storage browser.

File Details:
- File Name: %s
- Bucket: %s
- Location: %s

Please visit %s to access the file.

Note: You will need to log in first. After logging in, you will be directed to the file.

This email was sent automatically. Please do not reply to this message.
`, fileName, bucket, key, deepLink)
}
