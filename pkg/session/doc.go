// Package session composes the authentication gate, parameter store,
// safety policy and monitoring loop into the operations available to an
// authenticated operator.
//
// A Controller can only be obtained through Authenticate, or through New
// with an Identity produced by a successful gate pass. Every Controller
// owns its own store, configuration, loop and failsafe timer; nothing is
// shared between sessions.
//
//	gate := cert.NewGate(nil)
//	ctrl, err := session.Authenticate(ctx, gate, creds, session.Options{
//	    Config:  &cfg,
//	    Storage: persistence.NewConfigStore("config.json"),
//	})
//	if err != nil {
//	    return err // *cert.AuthError: terminal for this attempt
//	}
//	defer ctrl.Close()
//
//	ctrl.StartMonitoring(ctx, 0)
//	report := ctrl.CheckSafety()
package session
