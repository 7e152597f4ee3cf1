// Package region reserves the single fixed-size byte region that backs a heap.
//
// On unix platforms the region is an anonymous private mapping, so its pages
// live outside the Go heap and are never scanned by the garbage collector.
// Other platforms fall back to an ordinary slice.
package region
