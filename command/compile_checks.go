package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateSessionMessage]  = (*CreateSessionCommand)(nil)
	_ gocmd.Commander[ProcessWebhookMessage] = (*ProcessWebhookCommand)(nil)
)
