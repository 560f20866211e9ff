// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// totp_cmd.go - TOTP code generation for SSH 2FA logins.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: totp SECRET [CODE]
// Short:   Print or check the current TOTP code for SSH 2FA
// Aliases: 2fa
//
// Examples:
//   rigup totp JBSWY3DPEHPK3PXP          Current code plus time left
//   rigup totp JBSWY3DPEHPK3PXP 492039   Check a code against the secret
//
// When the playbook enables TOTP 2FA on the target it prints a base32
// secret during the google-authenticator step. This command turns that
// secret into login codes without leaving the terminal.
//
// Exit codes:
//   0  Code printed, or checked code is valid
//   1  Checked code is not valid
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// totpPeriod is the code rotation interval, fixed at the
// google-authenticator default.
const totpPeriod = 30

// HandleTOTP handles the "totp" command. It never returns.
func HandleTOTP(args Args) {
	if err := runTOTP(args); err != nil {
		HandleErrorAndExit(err)
	}
	os.Exit(ExitSuccess)
}

func runTOTP(args Args) error {
	secret := normalizeTOTPSecret(args.Secret)
	if secret == "" {
		return ErrMissingArgument("secret", "rigup totp JBSWY3DPEHPK3PXP")
	}

	// Second positional turns generate into check.
	if len(args.Raw) > 1 {
		return checkTOTPCode(secret, args.Raw[1])
	}

	now := time.Now()
	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		return WrapError(err, "generating code (is the secret base32?)")
	}

	remaining := totpPeriod - now.Unix()%totpPeriod
	if args.Quiet {
		fmt.Println(code)
		return nil
	}
	fmt.Printf("%s  %s\n", HighlightStyle.Render(code),
		DimStyle.Render(fmt.Sprintf("valid for %ds", remaining)))
	return nil
}

// checkTOTPCode verifies a code the way the PAM module on the target
// will, current window only.
func checkTOTPCode(secret, code string) error {
	code = strings.TrimSpace(code)
	if totp.Validate(code, secret) {
		fmt.Printf("%s Code is valid\n", SuccessStyle.Render("[OK]"))
		return nil
	}
	fmt.Printf("%s Code is not valid for this secret right now\n", ErrorStyle.Render("[FAIL]"))
	os.Exit(ExitGeneralError)
	return nil
}

// normalizeTOTPSecret strips the spacing and dashes authenticator apps
// put in exported secrets. The otp library handles case and padding.
func normalizeTOTPSecret(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToUpper(s)
}
