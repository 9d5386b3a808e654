package model

import "fmt"

// ExecutionTarget is one concrete place a signal is executed against.
// It only lives for the duration of a routing decision.
type ExecutionTarget struct {
	Exchange    Exchange    `json:"exchange"`
	Env         Environment `json:"env"`
	AccountType AccountType `json:"account_type"`
}

func (t ExecutionTarget) String() string {
	return fmt.Sprintf("%s/%s/%s", t.Exchange, t.Env, t.AccountType)
}
