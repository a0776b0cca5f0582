package enum

// DocumentCategory is the fixed taxonomy a document is filed under.
type DocumentCategory string

const (
	CategoryTaxFiling      DocumentCategory = "tax_filing"
	CategoryVATReturn      DocumentCategory = "vat_return"
	CategoryPayroll        DocumentCategory = "payroll"
	CategoryRegistryFiling DocumentCategory = "registry_filing"
	CategoryContract       DocumentCategory = "contract"
	CategoryBanking        DocumentCategory = "banking"
	CategoryInsurance      DocumentCategory = "insurance"
	CategoryCorrespondence DocumentCategory = "correspondence"
	CategoryOther          DocumentCategory = "other"
)

var documentCategories = []DocumentCategory{
	CategoryTaxFiling,
	CategoryVATReturn,
	CategoryPayroll,
	CategoryRegistryFiling,
	CategoryContract,
	CategoryBanking,
	CategoryInsurance,
	CategoryCorrespondence,
	CategoryOther,
}

func DocumentCategories() []DocumentCategory {
	out := make([]DocumentCategory, len(documentCategories))
	copy(out, documentCategories)
	return out
}

func DecodeDocumentCategory(s string) (DocumentCategory, bool) {
	for _, c := range documentCategories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c DocumentCategory) String() string {
	return string(c)
}

// Leaf returns the short display form used when generating document names.
func (c DocumentCategory) Leaf() string {
	switch c {
	case CategoryTaxFiling:
		return "TaxFiling"
	case CategoryVATReturn:
		return "VATReturn"
	case CategoryPayroll:
		return "Payroll"
	case CategoryRegistryFiling:
		return "RegistryFiling"
	case CategoryContract:
		return "Contract"
	case CategoryBanking:
		return "Banking"
	case CategoryInsurance:
		return "Insurance"
	case CategoryCorrespondence:
		return "Correspondence"
	default:
		return "Other"
	}
}
