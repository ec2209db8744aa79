package model

import "iter"

const (
	StatsInputsTotal = "_inputs_total"
	StatsErrInputs   = "_inputs_errors"
	StatsBytesTotal  = "_bytes_total"
	StatsErrReads    = "_reads_errors"
)

type Stats interface {
	IncInputs()
	IncErrInputs()
	AddBytes(n uint64)
	IncErrReads()
	Stats() iter.Seq2[string, string]
}
