package clientdist

import _ "embed"

// KinesisJS is the browser client. It applies host operations streamed by
// the server to the page and sends listened events back.
//
// It is served by the server at "/client.js".
//
//go:embed kinesis.js
var KinesisJS []byte
