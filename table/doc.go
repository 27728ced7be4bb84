/*Package table generates the tabulated potentials Gromacs reads for
nonbonded pairs and for tabulated bonded terms.

For every atom-type pair the fitted terms are classified into the
attractive and the repulsive slot of the Gromacs table format, evaluated
over a uniform distance grid, summed per slot and written as the
x/Coulomb/attractive/repulsive value-force columns of an .xvg table. Two
physics transforms can be applied after summation: dispersion scaling,
which normalizes the attractive columns by their own C6 so Gromacs
dispersion corrections work, and a soft-core remap of the evaluation
distance for free-energy calculations.

Everything here is pure computation on a read-only *afm.FF; writing the
tables is a separate step (WriteNonbonded, WriteBonded).
*/
package table
