package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func Exit(code int, msg string, args ...any) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// ExitErr wraps a failed operation into an exit error with a red reason.
func ExitErr(code int, what string, err error) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf("%s: %s", what, Red(err)), code)
}
