package framer

import (
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/matprops-go/internal/network/codec"
	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

// Framer 抽象了定长记录在 HTTP 报文体上的收发。
//
// 约定：
//   - 请求体即一条完整的请求记录，没有额外的长度前缀，按块读入 Decoder；
//   - 响应体即一条完整的响应记录，先以 DeclaredSize 设置 Content-Length，再一次性写出。
type Framer interface {
	// ReadBody 从 r 中按块读取数据并累积到 dec，返回读取的总字节数。
	ReadBody(r io.Reader, dec *codec.Decoder) (int, error)

	// WriteParcel 将 Parcel 唯一的数据块写入 w。
	WriteParcel(w http.ResponseWriter, contentType string, p *codec.Parcel) (int, error)
}

// BodyFramer 是 Framer 的默认实现。
type BodyFramer struct {
	// ChunkSize 为单次读取的最大字节数，为 0 时使用默认值 DefaultChunkSize。
	ChunkSize int
}

// DefaultChunkSize 为默认的单次读取大小。
const DefaultChunkSize = 4096

var _ Framer = (*BodyFramer)(nil)

// NewBodyFramer 创建一个报文体帧处理器，chunkSize 为 0 时使用默认值。
func NewBodyFramer(chunkSize int) *BodyFramer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &BodyFramer{ChunkSize: chunkSize}
}

// ReadBody 实现 Framer.ReadBody。
//
// 读取失败返回 ErrProtocolTransport（报文体被截断时错误信息中带有 unexpected EOF）；累积超出记录大小时立刻返回 ErrProtocolOverflow，
// 不再继续读取剩余数据。
func (f *BodyFramer) ReadBody(r io.Reader, dec *codec.Decoder) (int, error) {
	if r == nil {
		return 0, nil
	}
	chunk := make([]byte, f.effectiveChunkSize())
	total := 0
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += n
			if aerr := dec.Accumulate(chunk[:n]); aerr != nil {
				return total, aerr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// 对端在声明的 Content-Length 之前断开。
				err = merr.WrapErrIoUnexpectEOF("body", err)
			}
			return total, merr.WrapErrProtocolTransport(dec.Descriptor().Name(), err)
		}
	}
}

// WriteParcel 实现 Framer.WriteParcel。
func (f *BodyFramer) WriteParcel(w http.ResponseWriter, contentType string, p *codec.Parcel) (int, error) {
	if p == nil {
		return 0, errors.New("framer: parcel is nil")
	}
	if p.Sent() {
		return 0, merr.WrapErrServiceInternal("framer: parcel already sent")
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(p.DeclaredSize()))
	w.WriteHeader(http.StatusOK)

	written := 0
	for {
		chunk, ok := p.NextChunk()
		if !ok {
			return written, nil
		}
		n, err := w.Write(chunk)
		written += n
		if err != nil {
			return written, merr.WrapErrIoFailed(p.Descriptor().Name(), err)
		}
	}
}

func (f *BodyFramer) effectiveChunkSize() int {
	if f == nil || f.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return f.ChunkSize
}

// ReadExact 从 r 中读取恰好 size 个字节，供客户端读取响应体使用。
//
// 数据不足返回 ErrProtocolLengthMismatch，超出返回 ErrProtocolOverflow。
func ReadExact(r io.Reader, message string, size int) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, merr.WrapErrProtocolTransport(message, err)
	}
	switch {
	case len(buf) > size:
		return nil, merr.WrapErrProtocolOverflow(message, size, len(buf))
	case len(buf) < size:
		return nil, merr.WrapErrProtocolLengthMismatch(message, size, len(buf))
	}
	return buf, nil
}
