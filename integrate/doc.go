/*Package integrate handles the merging of windowed nucleotide
diversity (pi) for two populations with the windowed Fst
between them.

Each vcftools table is read into a map keyed by window, the
three maps are outer-joined on chromosome, start and end, and
the joined rows are written as one tab-delimited table with a
PI_RATIO column (pop1 pi over pop2 pi) next to the Fst values.
*/
package integrate
