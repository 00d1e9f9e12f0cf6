// Package identity resolves the uploading user's email address from a
// Cognito access token so notifications can reach the person who staged
// the file. Lookup failures fall back to the configured recipient; they
// never fail the pipeline.
package identity

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
)

// Resolver maps an access token to an email address. An empty result means
// no address could be determined.
type Resolver interface {
	Email(ctx context.Context, accessToken string) (string, error)
}

// cognitoAPI is the subset of the Cognito IDP client used.
type cognitoAPI interface {
	GetUserWithContext(ctx aws.Context, in *cognitoidentityprovider.GetUserInput, opts ...request.Option) (*cognitoidentityprovider.GetUserOutput, error)
}

// Cognito resolves emails through the Cognito user pool API.
type Cognito struct {
	client cognitoAPI
}

// NewCognito builds a Cognito resolver from an AWS session.
func NewCognito(sess *session.Session) *Cognito {
	return &Cognito{client: cognitoidentityprovider.New(sess)}
}

// Email looks up the user behind accessToken and returns their email
// attribute, or "" when the token is invalid or the attribute is absent.
func (c *Cognito) Email(ctx context.Context, accessToken string) (string, error) {
	out, err := c.client.GetUserWithContext(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		return "", err
	}
	for _, attr := range out.UserAttributes {
		if aws.StringValue(attr.Name) == "email" {
			return aws.StringValue(attr.Value), nil
		}
	}
	return "", nil
}
