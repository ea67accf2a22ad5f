// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package parser

import "errors"

var (
	errNoIPLayer        = errors.New("no IPv4 or IPv6 layer")
	errNoTransportLayer = errors.New("no UDP or TCP layer")
	errTruncated        = errors.New("truncated payload")
	errIsResponse       = errors.New("DNS response, not a query")
	errNoQuestion       = errors.New("zero questions in DNS message")
)
