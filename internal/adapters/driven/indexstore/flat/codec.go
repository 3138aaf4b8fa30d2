package flat

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// vectorMagic identifies a vectors.bin file.
var vectorMagic = [4]byte{'M', 'Q', 'A', 'V'}

const (
	vectorVersion    = 1
	vectorHeaderSize = 16
)

var errBadHeader = errors.New("flat: invalid vector file header")

// encodeHeader returns the vectors.bin header for the given dimensionality.
func encodeHeader(dims int) []byte {
	buf := make([]byte, vectorHeaderSize)
	copy(buf[0:4], vectorMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], vectorVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(dims))
	return buf
}

// decodeHeader validates a header and returns its dimensionality.
func decodeHeader(buf []byte) (int, error) {
	if len(buf) < vectorHeaderSize || !bytes.Equal(buf[0:4], vectorMagic[:]) {
		return 0, errBadHeader
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != vectorVersion {
		return 0, fmt.Errorf("flat: unsupported vector file version %d", v)
	}
	return int(binary.LittleEndian.Uint32(buf[8:12])), nil
}

// encodeVectors converts rows to little-endian float32 bytes.
func encodeVectors(rows [][]float32) []byte {
	size := 0
	for _, r := range rows {
		size += len(r) * 4
	}
	buf := make([]byte, 0, size)
	for _, r := range rows {
		for _, v := range r {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

// decodeVectors reads count rows of dims values from data.
func decodeVectors(data []byte, dims, count int) ([][]float32, error) {
	need := dims * count * 4
	if len(data) < need {
		return nil, fmt.Errorf("flat: vector data truncated: have %d bytes, need %d", len(data), need)
	}
	rows := make([][]float32, count)
	for i := range rows {
		row := make([]float32, dims)
		for j := range row {
			off := (i*dims + j) * 4
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		}
		rows[i] = row
	}
	return rows, nil
}

// encodeTexts renders texts as JSON lines.
func encodeTexts(texts []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, t := range texts {
		line, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode chunk text: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// decodeTexts reads count JSON lines from r.
func decodeTexts(r io.Reader, count int) ([]string, error) {
	texts := make([]string, 0, count)
	reader := bufio.NewReader(r)
	for len(texts) < count {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("flat: chunk list truncated at line %d: %w", len(texts), err)
		}
		var text string
		if err := json.Unmarshal(line, &text); err != nil {
			return nil, fmt.Errorf("flat: decode chunk line %d: %w", len(texts), err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// l2 returns the Euclidean distance between equal-length vectors.
func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
