// Package packer is the embeddable API of amanpack.
//
// It wires the language resource manager, the line-limit engine and the
// directory packer behind one value so other programs can compress source
// without depending on internal packages.
//
// # Usage
//
//	p, err := packer.New()
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	skeleton, ok, err := p.Compress(ctx, src, "main.go", packer.CompressOptions{})
//	limited := p.LimitLines(ctx, src, "main.go", 200, packer.LimitOptions{ShowIndicators: true})
//
// # Thread Safety
//
// A Packer is safe for concurrent use. Close must be called once, after
// all other calls have returned.
package packer
