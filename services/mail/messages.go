package mail

import "fmt"

// SendPasswordReset emails the reset link built from the raw token secret.
func (s *Service) SendPasswordReset(to, resetURL, appName string) error {
	subject := fmt.Sprintf("%s password reset", appName)
	text := fmt.Sprintf(
		"We received a request to reset your %s password.\n\n"+
			"Open this link to choose a new one:\n%s\n\n"+
			"The link expires soon and can be used once. If you didn't ask for "+
			"this, you can ignore this email.\n", appName, resetURL)
	html := fmt.Sprintf(
		`<p>We received a request to reset your %s password.</p>`+
			`<p><a href="%s">Choose a new password</a></p>`+
			`<p>The link expires soon and can be used once. If you didn't ask `+
			`for this, you can ignore this email.</p>`, appName, resetURL)
	return s.Send(to, subject, text, html)
}

// SendVerification emails the address-confirmation link.
func (s *Service) SendVerification(to, verifyURL, appName string) error {
	subject := fmt.Sprintf("Verify your %s account", appName)
	text := fmt.Sprintf(
		"Welcome to %s!\n\n"+
			"Confirm your email address by opening this link:\n%s\n\n"+
			"You won't be able to sign in until your address is verified.\n",
		appName, verifyURL)
	html := fmt.Sprintf(
		`<p>Welcome to %s!</p>`+
			`<p><a href="%s">Confirm your email address</a></p>`+
			`<p>You won't be able to sign in until your address is verified.</p>`,
		appName, verifyURL)
	return s.Send(to, subject, text, html)
}
