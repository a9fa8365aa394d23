// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// A version describes metadata associated with a version.
type version struct {
	apos    int      // position of the second alignment pattern row/column
	astride int      // distance between further alignment patterns
	bytes   int      // total codewords
	level   [4]level // error correction block structure
}

type level struct {
	nblock int // number of blocks
	check  int // error correction codewords per block
}

// Version table.  Derived from qrencode-3.1.1/qrspec.c.
var vtab = [MaxVersion + 1]version{
	1:  {0, 0, 26, [4]level{{1, 7}, {1, 10}, {1, 13}, {1, 17}}},
	2:  {18, 0, 44, [4]level{{1, 10}, {1, 16}, {1, 22}, {1, 28}}},
	3:  {22, 0, 70, [4]level{{1, 15}, {1, 26}, {2, 18}, {2, 22}}},
	4:  {26, 0, 100, [4]level{{1, 20}, {2, 18}, {2, 26}, {4, 16}}},
	5:  {30, 0, 134, [4]level{{1, 26}, {2, 24}, {4, 18}, {4, 22}}},
	6:  {34, 0, 172, [4]level{{2, 18}, {4, 16}, {4, 24}, {4, 28}}},
	7:  {22, 16, 196, [4]level{{2, 20}, {4, 18}, {6, 18}, {5, 26}}},
	8:  {24, 18, 242, [4]level{{2, 24}, {4, 22}, {6, 22}, {6, 26}}},
	9:  {26, 20, 292, [4]level{{2, 30}, {5, 22}, {8, 20}, {8, 24}}},
	10: {28, 22, 346, [4]level{{4, 18}, {5, 26}, {8, 24}, {8, 28}}},
	11: {30, 24, 404, [4]level{{4, 20}, {5, 30}, {8, 28}, {11, 24}}},
	12: {32, 26, 466, [4]level{{4, 24}, {8, 22}, {10, 26}, {11, 28}}},
	13: {34, 28, 532, [4]level{{4, 26}, {9, 22}, {12, 24}, {16, 22}}},
	14: {26, 20, 581, [4]level{{4, 30}, {9, 24}, {16, 20}, {16, 24}}},
	15: {26, 22, 655, [4]level{{6, 22}, {10, 24}, {12, 30}, {18, 24}}},
	16: {26, 24, 733, [4]level{{6, 24}, {10, 28}, {17, 24}, {16, 30}}},
	17: {30, 24, 815, [4]level{{6, 28}, {11, 28}, {16, 28}, {19, 28}}},
	18: {30, 26, 901, [4]level{{6, 30}, {13, 26}, {18, 28}, {21, 28}}},
	19: {30, 28, 991, [4]level{{7, 28}, {14, 26}, {21, 26}, {25, 26}}},
	20: {34, 28, 1085, [4]level{{8, 28}, {16, 26}, {20, 30}, {25, 28}}},
	21: {28, 22, 1156, [4]level{{8, 28}, {17, 26}, {23, 28}, {25, 30}}},
	22: {26, 24, 1258, [4]level{{9, 28}, {17, 28}, {23, 30}, {34, 24}}},
	23: {30, 24, 1364, [4]level{{9, 30}, {18, 28}, {25, 30}, {30, 30}}},
	24: {28, 26, 1474, [4]level{{10, 30}, {20, 28}, {27, 30}, {32, 30}}},
	25: {32, 26, 1588, [4]level{{12, 26}, {21, 28}, {29, 30}, {35, 30}}},
	26: {30, 28, 1706, [4]level{{12, 28}, {23, 28}, {34, 28}, {37, 30}}},
	27: {34, 28, 1828, [4]level{{12, 30}, {25, 28}, {34, 30}, {40, 30}}},
	28: {26, 24, 1921, [4]level{{13, 30}, {26, 28}, {35, 30}, {42, 30}}},
	29: {30, 24, 2051, [4]level{{14, 30}, {28, 28}, {38, 30}, {45, 30}}},
	30: {26, 26, 2185, [4]level{{15, 30}, {29, 28}, {40, 30}, {48, 30}}},
	31: {30, 26, 2323, [4]level{{16, 30}, {31, 28}, {43, 30}, {51, 30}}},
	32: {34, 26, 2465, [4]level{{17, 30}, {33, 28}, {45, 30}, {54, 30}}},
	33: {30, 28, 2611, [4]level{{18, 30}, {35, 28}, {48, 30}, {57, 30}}},
	34: {34, 28, 2761, [4]level{{19, 30}, {37, 28}, {51, 30}, {60, 30}}},
	35: {30, 24, 2876, [4]level{{19, 30}, {38, 28}, {53, 30}, {63, 30}}},
	36: {24, 26, 3034, [4]level{{20, 30}, {40, 28}, {56, 30}, {66, 30}}},
	37: {28, 26, 3196, [4]level{{21, 30}, {43, 28}, {59, 30}, {70, 30}}},
	38: {32, 26, 3362, [4]level{{22, 30}, {45, 28}, {62, 30}, {74, 30}}},
	39: {26, 28, 3532, [4]level{{24, 30}, {47, 28}, {65, 30}, {77, 30}}},
	40: {30, 28, 3706, [4]level{{25, 30}, {49, 28}, {68, 30}, {81, 30}}},
}
