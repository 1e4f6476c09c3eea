// Package log provides slog-based logging for rtps with automatic
// sanitization of sensitive values.
//
// Navigation events carry full URLs and request headers. Query strings
// and fragments often hold session tokens or one-time codes, and the
// Cookie and Authorization headers must never reach a log file. The
// SecureHandler masks those values before they reach the underlying
// handler, in verbose mode as well.
//
// # Usage
//
//	logger, closer, err := log.NewLogger(log.Options{
//	    Verbose: true,
//	    File:    "/var/log/rtps/rtps.log",
//	})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
//	logger.Info("navigation committed",
//	    "url", "https://bank.example/login?session=abc", // logged as https://bank.example/login?***
//	    "cookie", "sid=1",                                // logged as ***REDACTED***
//	)
package log
