package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
)

type fakeCognito struct {
	out   *cognitoidentityprovider.GetUserOutput
	err   error
	token string
}

func (f *fakeCognito) GetUserWithContext(_ aws.Context, in *cognitoidentityprovider.GetUserInput, _ ...request.Option) (*cognitoidentityprovider.GetUserOutput, error) {
	f.token = aws.StringValue(in.AccessToken)
	return f.out, f.err
}

func attrs(pairs ...string) []*cognitoidentityprovider.AttributeType {
	var out []*cognitoidentityprovider.AttributeType
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, &cognitoidentityprovider.AttributeType{
			Name:  aws.String(pairs[i]),
			Value: aws.String(pairs[i+1]),
		})
	}
	return out
}

func TestCognitoEmail(t *testing.T) {
	t.Parallel()

	client := &fakeCognito{out: &cognitoidentityprovider.GetUserOutput{
		UserAttributes: attrs("sub", "abc-123", "email", "user@example.com"),
	}}
	c := &Cognito{client: client}

	got, err := c.Email(context.Background(), "token-1")
	if err != nil || got != "user@example.com" {
		t.Fatalf("got %q, err %v", got, err)
	}
	if client.token != "token-1" {
		t.Fatalf("token = %q", client.token)
	}
}

func TestCognitoEmail_NoAttribute(t *testing.T) {
	t.Parallel()

	c := &Cognito{client: &fakeCognito{out: &cognitoidentityprovider.GetUserOutput{
		UserAttributes: attrs("sub", "abc-123"),
	}}}

	got, err := c.Email(context.Background(), "t")
	if err != nil || got != "" {
		t.Fatalf("missing attribute must yield empty address: %q, %v", got, err)
	}
}

func TestCognitoEmail_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("NotAuthorizedException")
	c := &Cognito{client: &fakeCognito{err: boom}}

	if _, err := c.Email(context.Background(), "t"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
