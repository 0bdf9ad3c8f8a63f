package dispatch

import (
	"codemailer/dep"
	"net/http"
)

// Deps are the collaborators of an Engine. Files and Notifier may be nil.
type Deps struct {
	Templates   TemplateStore
	Credentials CredentialStore
	Decrypter   Decrypter
	Transport   dep.MailTransport
	SentLog     SentLog
	Ledger      Ledger
	Notifier    Notifier
	Files       dep.FileDownloader
}

// New wires an Engine with its worker, recorder and run registry.
func New(opts Options, deps Deps) *Engine {
	var (
		resolver = dep.NewAttachmentResolver(&http.Client{Timeout: opts.FetchTimeout}, deps.Files)
		worker   = NewWorker(opts, deps.Transport, deps.SentLog)
		recorder = NewRecorder(opts, deps.Ledger, deps.Notifier)
		registry = NewRunRegistry(opts.RunTTL)
	)

	return NewEngine(opts, deps.Templates, deps.Credentials, deps.Decrypter, resolver, worker, recorder, registry)
}
