package cache

import "github.com/vango-dev/kinesis/pkg/ident"

func idOf(n uint64) ident.ID { return ident.ID(n) }
