// seehuhn.de/go/dvi - a library for reading and rewriting DVI files
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ghostscript

import (
	"encoding/binary"
	"math"
	"time"

	"seehuhn.de/go/icc"
)

// Tags of a matrix/TRC display profile.
const (
	tagWhitePoint icc.TagType = 0x77747074 // "wtpt"
	tagRedXYZ     icc.TagType = 0x7258595A // "rXYZ"
	tagGreenXYZ   icc.TagType = 0x6758595A // "gXYZ"
	tagBlueXYZ    icc.TagType = 0x6258595A // "bXYZ"
	tagRedTRC     icc.TagType = 0x72545243 // "rTRC"
	tagGreenTRC   icc.TagType = 0x67545243 // "gTRC"
	tagBlueTRC    icc.TagType = 0x62545243 // "bTRC"
)

// The sRGB primaries, adapted to the D50 illuminant of the PCS.
var (
	whiteD50  = [3]float64{0.9642, 1.0, 0.8249}
	srgbRed   = [3]float64{0.4360747, 0.2225045, 0.0139322}
	srgbGreen = [3]float64{0.3850649, 0.7168786, 0.0971045}
	srgbBlue  = [3]float64{0.1430804, 0.0606169, 0.7141733}
)

// trcSamples is the number of entries in the tone reproduction curves.
const trcSamples = 1024

// srgbProfile returns an ICC version 2 display profile for the sRGB
// colour space.
func srgbProfile() []byte {
	trc := curveTag(trcSamples, func(v float64) float64 {
		if v <= 0.04045 {
			return v / 12.92
		}
		return math.Pow((v+0.055)/1.055, 2.4)
	})
	p := &icc.Profile{
		Version:         icc.Version2_1_0,
		Class:           icc.DisplayDeviceProfile,
		ColorSpace:      icc.RGBSpace,
		PCS:             icc.PCSXYZSpace,
		CreationDate:    time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		RenderingIntent: icc.Perceptual,
		TagData: map[icc.TagType][]byte{
			icc.ProfileDescription: descTag("sRGB IEC61966-2.1"),
			icc.Copyright:          textTag("No copyright, use freely"),
			tagWhitePoint:          xyzTag(whiteD50),
			tagRedXYZ:              xyzTag(srgbRed),
			tagGreenXYZ:            xyzTag(srgbGreen),
			tagBlueXYZ:             xyzTag(srgbBlue),
			tagRedTRC:              trc,
			tagGreenTRC:            trc,
			tagBlueTRC:             trc,
		},
	}
	return p.Encode()
}

func tagHeader(sig string) []byte {
	buf := make([]byte, 8, 64)
	copy(buf, sig)
	return buf
}

func s15Fixed16(x float64) uint32 {
	return uint32(int32(math.Round(x * 65536)))
}

func xyzTag(xyz [3]float64) []byte {
	buf := tagHeader("XYZ ")
	for _, x := range xyz {
		buf = binary.BigEndian.AppendUint32(buf, s15Fixed16(x))
	}
	return buf
}

func curveTag(n int, f func(float64) float64) []byte {
	buf := tagHeader("curv")
	buf = binary.BigEndian.AppendUint32(buf, uint32(n))
	for i := range n {
		y := f(float64(i) / float64(n-1))
		buf = binary.BigEndian.AppendUint16(buf, uint16(math.Round(y*65535)))
	}
	return buf
}

func textTag(s string) []byte {
	buf := tagHeader("text")
	buf = append(buf, s...)
	return append(buf, 0)
}

// descTag encodes a version 2 textDescriptionType, with empty Unicode and
// ScriptCode parts.
func descTag(s string) []byte {
	buf := tagHeader("desc")
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)+1))
	buf = append(buf, s...)
	buf = append(buf, 0)
	buf = binary.BigEndian.AppendUint32(buf, 0) // Unicode language
	buf = binary.BigEndian.AppendUint32(buf, 0) // Unicode count
	buf = binary.BigEndian.AppendUint16(buf, 0) // ScriptCode code
	buf = append(buf, 0)                        // ScriptCode count
	return append(buf, make([]byte, 67)...)
}
