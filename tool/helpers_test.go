package tool

import (
	"context"

	"github.com/hupe1980/mailmesh/mail"
)

type senderFunc func(ctx context.Context) error

func (f senderFunc) Send(ctx context.Context, _ mail.Draft) (string, error) {
	if err := f(ctx); err != nil {
		return "", err
	}
	return "ok", nil
}
