package sheetql

import (
	"path/filepath"
	"strings"

	"github.com/nao1215/sheetql/domain/model"
)

// FileType is the tabular format of an uploaded file, independent of compression.
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeLTSV represents LTSV file type
	FileTypeLTSV
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extLTSV    = ".ltsv"
	extParquet = ".parquet"
	extXLSX    = ".xlsx"
)

var compressionTypes = []model.CompressionType{
	model.CompressionGZ,
	model.CompressionBZ2,
	model.CompressionXZ,
	model.CompressionZSTD,
}

// String returns the format name used in error messages.
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "CSV"
	case FileTypeTSV:
		return "TSV"
	case FileTypeLTSV:
		return "LTSV"
	case FileTypeParquet:
		return "Parquet"
	case FileTypeXLSX:
		return "XLSX"
	default:
		return "unsupported"
	}
}

// extension returns the file extension for the FileType
func (ft FileType) extension() string {
	switch ft {
	case FileTypeCSV:
		return extCSV
	case FileTypeTSV:
		return extTSV
	case FileTypeLTSV:
		return extLTSV
	case FileTypeParquet:
		return extParquet
	case FileTypeXLSX:
		return extXLSX
	default:
		return ""
	}
}

// detectFileType splits a file name such as "sales.xlsx.gz" into its
// tabular format and compression.
func detectFileType(name string) (FileType, model.CompressionType) {
	lower := strings.ToLower(filepath.Base(name))

	compression := model.CompressionNone
	for _, c := range compressionTypes {
		if strings.HasSuffix(lower, c.Extension()) {
			compression = c
			lower = strings.TrimSuffix(lower, c.Extension())
			break
		}
	}

	switch filepath.Ext(lower) {
	case extCSV:
		return FileTypeCSV, compression
	case extTSV:
		return FileTypeTSV, compression
	case extLTSV:
		return FileTypeLTSV, compression
	case extParquet:
		return FileTypeParquet, compression
	case extXLSX:
		return FileTypeXLSX, compression
	default:
		return FileTypeUnsupported, compression
	}
}

// IsSupportedFile reports whether name has an extension that can be uploaded.
func IsSupportedFile(name string) bool {
	ft, _ := detectFileType(name)
	return ft != FileTypeUnsupported
}

// SupportedExtensions lists every accepted extension, compressed variants included.
func SupportedExtensions() []string {
	bases := []FileType{FileTypeXLSX, FileTypeCSV, FileTypeTSV, FileTypeLTSV, FileTypeParquet}
	exts := make([]string, 0, len(bases)*(len(compressionTypes)+1))
	for _, b := range bases {
		exts = append(exts, b.extension())
		for _, c := range compressionTypes {
			exts = append(exts, b.extension()+c.Extension())
		}
	}
	return exts
}
