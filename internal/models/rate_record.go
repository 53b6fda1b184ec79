package models

// RateRecord maps a client identifier (originating IP) to the unix-second
// timestamps of its admitted requests. Every write that touches a client
// leaves only in-window timestamps behind; clients with none are removed.
type RateRecord map[string][]int64
