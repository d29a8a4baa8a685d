// Package bio provides sequence input and one-hot encoding of
// nucleotide alignments.
package bio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Alphabet is the nucleotide alphabet in the encoding order.
const Alphabet = "ACGT"

// NAlphabet is the alphabet size.
const NAlphabet = len(Alphabet)

// letterNum maps a nucleotide letter to its index in the alphabet.
var letterNum = map[byte]int{'A': 0, 'C': 1, 'G': 2, 'T': 3}

// Sequence is a type which is intended for storing a nucleotide
// sequence with it's name.
type Sequence struct {
	Name     string
	Sequence string
}

// Sequences stores multiple sequences. E.g. a sequence alignment.
type Sequences []Sequence

// ParseFasta parses FASTA sequences from a reader.
func ParseFasta(rd io.Reader) (seqs Sequences, err error) {
	seqs = make(Sequences, 0, 10)
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			seq := Sequence{Name: line[1:]}
			seqs = append(seqs, seq)
		} else {
			if len(seqs) == 0 {
				return nil, errors.New("sequence w/o prefix")
			}
			line = strings.ToUpper(strings.Replace(line, " ", "", -1))
			line = strings.Replace(line, "U", "T", -1)
			seqs[len(seqs)-1].Sequence += line
		}
	}
	return
}

// Wrap inputs a string and wraps it so string length is n characters
// or less.
func Wrap(seq string, n int) (s string) {
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		s += seq[i:end] + "\n"
	}
	return
}

// String returns a sequence in FASTA format.
func (seq Sequence) String() (s string) {
	s = ">" + seq.Name + "\n" + Wrap(seq.Sequence, 80)
	return
}

// String returns sequences in FASTA format.
func (seqs Sequences) String() (s string) {
	for _, seq := range seqs {
		s += seq.String()
	}
	return s[:len(s)-1]
}

// Alignment stores an ordered set of taxa together with the one-hot
// encoded genome tensor (NTaxa x NPositions x NAlphabet). Letters
// outside of ACGT are encoded as all ones, i.e. no information for
// the position.
type Alignment struct {
	Taxa   []string
	Genome [][][]float64
}

// NTaxa returns the number of taxa in the alignment.
func (ali *Alignment) NTaxa() int {
	return len(ali.Taxa)
}

// Length returns the number of positions in the alignment.
func (ali *Alignment) Length() int {
	if len(ali.Genome) == 0 {
		return 0
	}
	return len(ali.Genome[0])
}

// NewAlignment one-hot encodes sequences into an alignment. All the
// sequences must be of equal positive length; a violation is a
// configuration error reported immediately, not recoverable.
func NewAlignment(seqs Sequences) (*Alignment, error) {
	if len(seqs) < 2 {
		return nil, errors.New("at least two sequences required")
	}
	length := len(seqs[0].Sequence)
	if length == 0 {
		return nil, errors.New("zero length alignment")
	}
	ali := &Alignment{
		Taxa:   make([]string, len(seqs)),
		Genome: make([][][]float64, len(seqs)),
	}
	for i, seq := range seqs {
		if len(seq.Sequence) != length {
			return nil, fmt.Errorf("sequence <%s> has length %d, expected %d",
				seq.Name, len(seq.Sequence), length)
		}
		ali.Taxa[i] = seq.Name
		ali.Genome[i] = make([][]float64, length)
		for pos := 0; pos < length; pos++ {
			row := make([]float64, NAlphabet)
			l, ok := letterNum[seq.Sequence[pos]]
			if ok {
				row[l] = 1
			} else {
				for j := range row {
					row[j] = 1
				}
			}
			ali.Genome[i][pos] = row
		}
	}
	return ali, nil
}
