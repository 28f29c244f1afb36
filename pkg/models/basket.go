package models

// BasketMatrix is a binary transaction-by-item presence matrix. Rows are
// transactions, columns are items sorted lexicographically by label so that
// repeated runs on identical input produce identical matrices.
//
// Every cell is exactly 0 or 1: multiplicity in the source data collapses to
// presence when the matrix is built.
type BasketMatrix struct {
	// Transactions are the row labels, in first-seen input order.
	Transactions []string `json:"transactions"`

	// Items are the column labels, sorted lexicographically.
	Items []string `json:"items"`

	// cells is the row-major presence flags, len(Transactions)*len(Items).
	cells []uint8
}

// NewBasketMatrix allocates an all-zero matrix for the given labels.
// The caller is responsible for passing items in sorted order.
func NewBasketMatrix(transactions, items []string) *BasketMatrix {
	return &BasketMatrix{
		Transactions: transactions,
		Items:        items,
		cells:        make([]uint8, len(transactions)*len(items)),
	}
}

// Set marks the presence flag for (transaction row, item column).
func (m *BasketMatrix) Set(row, col int, present bool) {
	if present {
		m.cells[row*len(m.Items)+col] = 1
	} else {
		m.cells[row*len(m.Items)+col] = 0
	}
}

// Present reports whether the item column is present in the transaction row.
func (m *BasketMatrix) Present(row, col int) bool {
	return m.cells[row*len(m.Items)+col] == 1
}

// Row returns a copy of one transaction row as 0/1 flags.
func (m *BasketMatrix) Row(row int) []uint8 {
	w := len(m.Items)
	out := make([]uint8, w)
	copy(out, m.cells[row*w:(row+1)*w])
	return out
}

// ItemTransactions returns the sorted row indices of transactions containing
// the item column. This is the per-item tidset the miner intersects.
func (m *BasketMatrix) ItemTransactions(col int) []int {
	var rows []int
	w := len(m.Items)
	for r := 0; r < len(m.Transactions); r++ {
		if m.cells[r*w+col] == 1 {
			rows = append(rows, r)
		}
	}
	return rows
}

// TransactionCount returns the number of transaction rows.
func (m *BasketMatrix) TransactionCount() int {
	return len(m.Transactions)
}

// ItemCount returns the number of item columns.
func (m *BasketMatrix) ItemCount() int {
	return len(m.Items)
}
