package codec

import (
	"math"
	"math/bits"

	"github.com/lk2023060901/matprops-go/internal/network/layout"
)

// SwapDouble 反转 v 的 8 字节位模式。
//
// 结果只是一个位模式，通常不是有意义的数值（可能是 NaN），它只在被当作
// 另一种字节序解读时才有意义。SwapDouble(SwapDouble(v)) 与 v 的位模式相同。
func SwapDouble(v float64) float64 {
	return math.Float64frombits(bits.ReverseBytes64(math.Float64bits(v)))
}

// swapInPlace 原地反转 buf 中每个 Double 字段的字节序，Byte 字段与填充字节不变。
func swapInPlace(desc *layout.Descriptor, buf []byte) {
	for i := 0; i < desc.NumFields(); i++ {
		if desc.Field(i).Kind != layout.KindDouble {
			continue
		}
		off := desc.Offset(i)
		b := buf[off : off+8]
		for l, r := 0, 7; l < r; l, r = l+1, r-1 {
			b[l], b[r] = b[r], b[l]
		}
	}
}
