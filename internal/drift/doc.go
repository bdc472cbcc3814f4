// Package drift turns matched word pairs into timing statistics, classified
// sync errors, and the 0-100 sync rating.
//
// All aggregation works on sorted copies of the drift samples so results do
// not depend on match order. The rating penalty uses order statistics of the
// absolute drift only, which keeps it monotone: moving any sample toward zero
// never lowers the score.
package drift
