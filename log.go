package llsd

import "github.com/sirupsen/logrus"

// Log is the package-level logger used only by cmd/llsd for -verbose
// tracing. The llsd package itself never calls it: decoders and encoders
// are pure functions of their input (spec §5) and perform no logging of
// their own. cmd/llsd sets it to the logrus standard logger (at debug
// level when --verbose is given) before running a subcommand.
var Log logrus.FieldLogger = logrus.StandardLogger()
