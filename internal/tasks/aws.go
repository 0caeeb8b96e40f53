package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultAccountRole = "OrganizationAccountAccessRole"

// AWSAccountTask requests a new member account in the caller's AWS organization.
type AWSAccountTask struct {
	env *Env
}

func NewAWSAccountTask(env *Env) AWSAccountTask {
	return AWSAccountTask{env: env}
}

func (t AWSAccountTask) Metadata() Metadata {
	return Metadata{
		ID:          "create-aws-account",
		Name:        "Create AWS sub-account",
		Description: "Create a member account in the current AWS organization",
	}
}

func (t AWSAccountTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "email", Description: "root email of the new account", Required: true},
		{Name: "name", Description: "account name", Required: true},
		{Name: "role_name", Description: "cross-account admin role", Default: DefaultAccountRole},
		{Name: "billing_access", Description: "IAM user access to billing (ALLOW or DENY)", Default: "DENY"},
		{Name: "profile", Description: "aws cli profile"},
	}
}

type createAccountOutput struct {
	CreateAccountStatus createAccountStatus `json:"CreateAccountStatus"`
}

type createAccountStatus struct {
	ID            string `json:"Id"`
	AccountName   string `json:"AccountName"`
	State         string `json:"State"`
	AccountID     string `json:"AccountId"`
	FailureReason string `json:"FailureReason"`
}

func (t AWSAccountTask) Run(ctx context.Context, args Args) (Result, error) {
	email := args.String("email")
	if err := validateEmail(email); err != nil {
		return Result{}, err
	}
	billing := strings.ToUpper(args.String("billing_access"))
	if billing != "ALLOW" && billing != "DENY" {
		return Result{}, fmt.Errorf("%w: billing_access=%q must be ALLOW or DENY", ErrInvalidArg, billing)
	}
	if !t.env.LookPath("aws") {
		return Result{}, fmt.Errorf("%w: aws", ErrToolMissing)
	}

	cmd := []string{}
	if profile := args.String("profile"); profile != "" {
		cmd = append(cmd, "--profile", profile)
	}
	cmd = append(cmd,
		"organizations", "create-account",
		"--email", email,
		"--account-name", args.String("name"),
		"--role-name", args.String("role_name"),
		"--iam-user-access-to-billing", billing,
		"--output", "json",
	)

	seq := newSequence(ctx, t.env.Runner)
	out, err := seq.run("aws", cmd...)
	if err != nil {
		return Result{Steps: seq.steps}, err
	}

	var decoded createAccountOutput
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		return Result{Steps: seq.steps}, fmt.Errorf("decode create-account output: %w", err)
	}
	status := decoded.CreateAccountStatus
	if status.State == "FAILED" {
		return Result{Steps: seq.steps}, fmt.Errorf("%w: request=%s reason=%s", ErrAccountFailed, status.ID, status.FailureReason)
	}

	return Result{
		Summary: fmt.Sprintf("Account request %s for %q state=%s", status.ID, args.String("name"), status.State),
		Steps:   seq.steps,
	}, nil
}

func validateEmail(email string) error {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") || strings.ContainsAny(email, " \t") {
		return fmt.Errorf("%w: email=%q", ErrInvalidArg, email)
	}
	return nil
}
