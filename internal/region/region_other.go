//go:build !unix

package region

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), nil, nil
}
